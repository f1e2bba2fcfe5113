package compiler

import (
	"fmt"
	"path"

	"github.com/cuemby/terminator/pkg/types"
)

const (
	publicMode  = "0644"
	privateMode = "0600"
)

// materialFile places certificate material on disk. A literal source
// stays literal and a reference stays a reference for the state engine
// to resolve.
func materialFile(target, mode string, src types.CertificateSource) *types.FileResource {
	file := &types.FileResource{Path: target, Mode: mode, MakeDirs: true}
	if src.IsReference() {
		file.ContentsRef = src.Reference
	} else {
		file.Contents = src.Contents
	}
	return file
}

// certificates emits the site's serving certificates and the bundle
// incoming client certificates are verified against
func (b *builder) certificates(site *types.SiteSpec, ctx *types.SiteContext) error {
	ctx.Certificates = make([]types.CertificatePaths, 0, len(site.Certificates))

	if site.ACME {
		live := path.Join(b.opts.ACMEDir, site.Domain)
		ctx.Certificates = append(ctx.Certificates, types.CertificatePaths{
			Cert: path.Join(live, "fullchain.pem"),
			Key:  path.Join(live, "privkey.pem"),
		})
	}

	for i, pair := range site.Certificates {
		n := i + 1
		paths := types.CertificatePaths{
			Cert: path.Join(b.opts.SSLDir, fmt.Sprintf("%s-%d.pem", site.Domain, n)),
			Key:  path.Join(b.opts.PrivateDir, fmt.Sprintf("%s-%d.key", site.Domain, n)),
		}
		prefix := fmt.Sprintf("%s-certs-%d", site.Domain, n)
		if err := b.addFile(site.Domain, "", prefix+"-cert", materialFile(paths.Cert, publicMode, pair.Cert)); err != nil {
			return err
		}
		if err := b.addFile(site.Domain, "", prefix+"-key", materialFile(paths.Key, privateMode, pair.Key)); err != nil {
			return err
		}
		ctx.Certificates = append(ctx.Certificates, paths)
	}

	if site.ClientCert != nil {
		target := path.Join(b.opts.SSLDir, site.Domain+"-client.pem")
		if err := b.addFile(site.Domain, "", site.Domain+"-client-cert", materialFile(target, publicMode, *site.ClientCert)); err != nil {
			return err
		}
		ctx.ClientCert = target
	}
	return nil
}

// trustRoot points an https location at the CA bundle its upstream is
// verified with. A custom root is named after the pool and the
// verification hostname, which defaults to the pool's primary host.
func (b *builder) trustRoot(site *types.SiteSpec, loc *types.LocationSpec, pool *types.UpstreamPool, lc *types.LocationContext) error {
	if loc.TrustRoot == nil {
		lc.UpstreamHostname = loc.UpstreamHostname
		if pool.Scheme == "https" {
			lc.UpstreamTrustRoot = b.opts.DefaultTrustRoot
			b.defaultTrustRooted = true
		}
		return nil
	}

	hostname := loc.UpstreamHostname
	if hostname == "" {
		hostname = pool.Servers[0].Hostname
	}

	name := pool.Identifier + "-" + hostname
	target := path.Join(b.opts.SSLDir, name+"-root.pem")
	if err := b.addFile(site.Domain, loc.Path, name, materialFile(target, publicMode, *loc.TrustRoot)); err != nil {
		return err
	}

	lc.UpstreamTrustRoot = target
	lc.UpstreamHostname = hostname
	return nil
}

// proxyClientCert emits the certificate a location presents to its
// upstream. The material belongs to the pool, so every location sharing
// the pool must present the same one.
func (b *builder) proxyClientCert(site *types.SiteSpec, loc *types.LocationSpec, pool *types.UpstreamPool, lc *types.LocationContext) error {
	if loc.ClientCert == nil || loc.ClientKey == nil {
		return nil
	}

	certPath := path.Join(b.opts.SSLDir, pool.Identifier+"-proxy-client.pem")
	keyPath := path.Join(b.opts.PrivateDir, pool.Identifier+"-proxy-client.key")

	if err := b.addFile(site.Domain, loc.Path, pool.Identifier+"-proxy-client-cert", materialFile(certPath, publicMode, *loc.ClientCert)); err != nil {
		return err
	}
	if err := b.addFile(site.Domain, loc.Path, pool.Identifier+"-proxy-client-key", materialFile(keyPath, privateMode, *loc.ClientKey)); err != nil {
		return err
	}

	lc.ProxyClientCertPath = certPath
	lc.ProxyClientKeyPath = keyPath
	return nil
}
