package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/cuemby/terminator/pkg/compiler"
	"github.com/cuemby/terminator/pkg/log"
	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable consulted when no --config
// flag is given
const EnvConfig = "TERMINATOR_CONFIG"

// DefaultPrefix is prepended to every resource name in the output graph
const DefaultPrefix = "tls-terminator-"

// Config is the tool configuration. Flags override file values.
type Config struct {
	// Prefix is prepended to every resource name. Default: tls-terminator-
	Prefix string `yaml:"prefix"`

	// PlatformVersion is the nginx version on the target, e.g. "1.18.0".
	// Empty means unknown and disables version gated features.
	PlatformVersion string `yaml:"platform_version"`

	// Paths configures where resources land on the target host.
	Paths PathsConfig `yaml:"paths"`

	// Store configures the pillar value store used by _pillar references.
	Store StoreConfig `yaml:"store"`

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PathsConfig holds the target directories of emitted files
type PathsConfig struct {
	Sites      string `yaml:"sites"`
	Conf       string `yaml:"conf"`
	SSL        string `yaml:"ssl"`
	Private    string `yaml:"private"`
	ErrorPages string `yaml:"error_pages"`
	ACME       string `yaml:"acme"`

	// TrustRoot is where the shared upstream trust bundle is written and
	// TrustRootSource where it is copied from.
	TrustRoot       string `yaml:"trust_root"`
	TrustRootSource string `yaml:"trust_root_source"`
}

// StoreConfig locates the secret store and its sealing key
type StoreConfig struct {
	// DataDir holds terminator.db. Empty disables the store.
	DataDir string `yaml:"data_dir"`

	// KeyFile holds the sealing key. Empty stores values unsealed.
	KeyFile string `yaml:"key_file"`
}

// LogConfig holds logging settings
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig holds metrics export settings
type MetricsConfig struct {
	// Textfile is where metrics are written after each run, for the
	// node_exporter textfile collector. Empty disables export.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	opts := compiler.DefaultOptions()
	return &Config{
		Prefix: DefaultPrefix,
		Paths: PathsConfig{
			Sites:           opts.SitesDir,
			Conf:            opts.ConfDir,
			SSL:             opts.SSLDir,
			Private:         opts.PrivateDir,
			ErrorPages:      opts.ErrorPageDir,
			ACME:            opts.ACMEDir,
			TrustRoot:       opts.DefaultTrustRoot,
			TrustRootSource: opts.DefaultTrustRootSource,
		},
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
	}
}

// Load reads path, or the file named by TERMINATOR_CONFIG when path is
// empty. With neither set the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config file over the defaults
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) expandVariables() {
	for _, p := range []*string{
		&c.Paths.Sites,
		&c.Paths.Conf,
		&c.Paths.SSL,
		&c.Paths.Private,
		&c.Paths.ErrorPages,
		&c.Paths.ACME,
		&c.Paths.TrustRoot,
		&c.Paths.TrustRootSource,
		&c.Store.DataDir,
		&c.Store.KeyFile,
		&c.Metrics.Textfile,
	} {
		*p = expandVars(*p)
	}
}

// varPattern matches ${VAR} and ${VAR:-default}
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	paths := map[string]string{
		"paths.sites":             c.Paths.Sites,
		"paths.conf":              c.Paths.Conf,
		"paths.ssl":               c.Paths.SSL,
		"paths.private":           c.Paths.Private,
		"paths.error_pages":       c.Paths.ErrorPages,
		"paths.acme":              c.Paths.ACME,
		"paths.trust_root":        c.Paths.TrustRoot,
		"paths.trust_root_source": c.Paths.TrustRootSource,
	}
	for _, name := range sortedKeys(paths) {
		switch value := paths[name]; {
		case value == "":
			errs = append(errs, fmt.Errorf("%s is required", name))
		case !filepath.IsAbs(value):
			errs = append(errs, fmt.Errorf("%s must be absolute, got %q", name, value))
		}
	}

	levels := []string{string(log.DebugLevel), string(log.InfoLevel), string(log.WarnLevel), string(log.ErrorLevel)}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}

	if c.Store.KeyFile != "" && c.Store.DataDir == "" {
		errs = append(errs, fmt.Errorf("store.key_file requires store.data_dir"))
	}

	return errors.Join(errs...)
}

// CompilerOptions maps the configuration onto compiler options
func (c *Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		PlatformVersion:        c.PlatformVersion,
		SitesDir:               c.Paths.Sites,
		ConfDir:                c.Paths.Conf,
		SSLDir:                 c.Paths.SSL,
		PrivateDir:             c.Paths.Private,
		ErrorPageDir:           c.Paths.ErrorPages,
		ACMEDir:                c.Paths.ACME,
		DefaultTrustRoot:       c.Paths.TrustRoot,
		DefaultTrustRootSource: c.Paths.TrustRootSource,
	}
}

// LogConfig returns the logger configuration
func (c *Config) LogConfig() log.Config {
	return log.Config{
		Level:      log.ParseLevel(c.Log.Level),
		JSONOutput: c.Log.JSON,
	}
}
