package compiler

import (
	"fmt"
	"path"
	"sort"

	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
)

var builtinErrorPages = map[int]types.ErrorPage{
	429: {
		ContentType: types.DefaultErrorPageContentType,
		Content: `<!doctype html>
<html>
<head><title>429 Too Many Requests</title></head>
<body>
<h1>Too many requests</h1>
<p>You have sent too many requests to {{ site }}. Please slow down and try again shortly.</p>
</body>
</html>
`,
	},
	504: {
		ContentType: types.DefaultErrorPageContentType,
		Content: `<!doctype html>
<html>
<head><title>504 Gateway Timeout</title></head>
<body>
<h1>Gateway timeout</h1>
<p>{{ site }} did not respond in time. Please try again later.</p>
</body>
</html>
`,
	},
}

// BuiltinErrorPages returns the pages every site gets unless overridden
func BuiltinErrorPages() map[int]types.ErrorPage {
	return pillar.Merge(builtinErrorPages)
}

var contentTypeExtensions = map[string]string{
	"text/html":        "html",
	"application/json": "json",
	"text/plain":       "txt",
}

// errorPages merges built-in < global < site pages and emits one file
// per code. Content is copied verbatim; placeholders are left for the
// renderer.
func (b *builder) errorPages(global *types.GlobalSpec, site *types.SiteSpec, ctx *types.SiteContext) {
	pages := pillar.Merge(builtinErrorPages, global.ErrorPages, site.ErrorPages)

	codes := make([]int, 0, len(pages))
	for code := range pages {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	ctx.ErrorPages = make(map[int]types.ErrorPageRef, len(pages))
	for _, code := range codes {
		page := pages[code]
		ext, ok := contentTypeExtensions[page.ContentType]
		if !ok {
			ext = "txt"
		}

		file := path.Join(b.opts.ErrorPageDir, site.Domain, fmt.Sprintf("%d.%s", code, ext))
		b.graph.Resources[fmt.Sprintf("%s-error-page-%d", site.Domain, code)] = &types.Resource{
			Kind: types.ResourceKindFile,
			File: &types.FileResource{
				Path:     file,
				Contents: page.Content,
				Mode:     publicMode,
				MakeDirs: true,
			},
		}
		ctx.ErrorPages[code] = types.ErrorPageRef{Path: file, ContentType: page.ContentType}
	}
}
