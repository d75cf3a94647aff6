package soql

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the .soql.yaml configuration file.
type Config struct {
	// CLI is the Salesforce CLI executable (default "sf").
	CLI string `yaml:"cli,omitempty"`

	// TargetOrg overrides the CLI's default org (alias or username).
	TargetOrg string `yaml:"targetOrg,omitempty"`

	// APIVersion is the REST API version used for object listing.
	APIVersion float64 `yaml:"apiVersion,omitempty"`

	// CacheTTLHours bounds how long describe results and object lists are reused.
	CacheTTLHours float64 `yaml:"cacheTTLHours,omitempty"`

	// Tooling starts editors in tooling mode.
	Tooling bool `yaml:"tooling,omitempty"`

	// DebounceMs is the idle interval before a completion pass runs.
	DebounceMs int `yaml:"debounceMs,omitempty"`

	// CacheDir holds the on-disk metadata cache and saved queries.
	CacheDir string `yaml:"cacheDir,omitempty"`

	// Schemas is a directory of describe files. When set it replaces the CLI
	// as the metadata source.
	Schemas string `yaml:"schemas,omitempty"`

	// Workspace is where exported result files are written.
	Workspace string `yaml:"workspace,omitempty"`

	// Pages is an optional directory of page fragments served on loadPage.
	Pages string `yaml:"pages,omitempty"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

func (c *Config) applyDefaults() {
	if c.CLI == "" {
		c.CLI = "sf"
	}

	if c.APIVersion == 0 {
		c.APIVersion = DefaultAPIVersion
	}

	if c.CacheTTLHours == 0 {
		c.CacheTTLHours = 12
	}

	if c.DebounceMs == 0 {
		c.DebounceMs = 500
	}

	if c.CacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.CacheDir = filepath.Join(dir, "soql")
		} else {
			c.CacheDir = ".soql-cache"
		}
	}

	if c.Workspace == "" {
		c.Workspace = "."
	}
}

// CacheTTL returns the metadata cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours * float64(time.Hour))
}

// Debounce returns the completion debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".soql.yaml", ".soql.yml", "soql.yaml", "soql.yml"}

// LoadConfig finds and loads the nearest .soql.yaml walking up from dir.
// When none exists the defaults are returned. Relative paths in the file are
// resolved against the file's directory.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if errors.Is(err, ErrConfigNotFound) {
		return DefaultConfig(), nil
	}

	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for _, p := range []*string{&cfg.CacheDir, &cfg.Schemas, &cfg.Workspace, &cfg.Pages} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}

	cfg.applyDefaults()

	return &cfg, nil
}
