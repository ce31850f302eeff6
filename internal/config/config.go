// Package config loads the archdocs configuration file and resolves it into
// the values the core packages consume.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"archdocs/internal/docs"
	"archdocs/internal/logging"
	"archdocs/internal/source"
	"archdocs/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "archdocs" // application name used for config directory

// Environment variables that override the file.
const (
	EnvConfigPath   = "ARCHDOCS_CONFIG"
	EnvSource       = "ARCHDOCS_SOURCE"
	EnvDocsPath     = "ARCHDOCS_DOCS_PATH"
	EnvGitHubOwner  = "ARCHDOCS_GITHUB_OWNER"
	EnvGitHubRepo   = "ARCHDOCS_GITHUB_REPO"
	EnvGitHubBranch = "ARCHDOCS_GITHUB_BRANCH"
	EnvHTTPAddr     = "ARCHDOCS_HTTP_ADDR"
	EnvWatch        = "ARCHDOCS_WATCH"
)

// Config holds user configuration for archdocs.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Server ServerConfig `yaml:"server"`
	// Watch refreshes the index when local documents change.
	Watch bool `yaml:"watch"`
}

// SourceConfig selects and locates the documentation source.
type SourceConfig struct {
	Kind       string   `yaml:"kind"`
	BasePath   string   `yaml:"base_path"`
	Owner      string   `yaml:"owner,omitempty"`
	Repository string   `yaml:"repository,omitempty"`
	Branch     string   `yaml:"branch,omitempty"`
	RemoteURL  string   `yaml:"remote_url,omitempty"`
	CloneDir   string   `yaml:"clone_dir,omitempty"`
	Categories []string `yaml:"categories"`
	Patterns   []string `yaml:"patterns,omitempty"`
	// MaxFileSize is in bytes; 0 uses the source default.
	MaxFileSize int64 `yaml:"max_file_size,omitempty"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	// HTTPAddr switches from stdio to streamable HTTP when set.
	HTTPAddr string `yaml:"http_addr,omitempty"`
}

// ConfigPath returns the standard config file path for the current platform.
// ARCHDOCS_CONFIG overrides it.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultConfig returns a Config with sensible defaults: the docs folder of
// the working directory, all categories, markdown files only.
func DefaultConfig() Config {
	cats := make([]string, len(docs.AllCategories))
	for i, c := range docs.AllCategories {
		cats[i] = c.String()
	}

	return Config{
		Source: SourceConfig{
			Kind:       string(source.KindLocal),
			BasePath:   "docs",
			Branch:     "main",
			Categories: cats,
			Patterns:   []string{"**/*.md"},
		},
		Server: ServerConfig{
			Name:    "archdocs",
			Version: "1.0.0",
		},
	}
}

// Load reads the config from path, or from ConfigPath when path is empty.
// A missing file yields the defaults. Environment overrides are applied and
// the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		logging.Debug("No config file, using defaults", "path", path)
		def := DefaultConfig()
		cfg = &def
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFrom decodes the file at path over the defaults.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// ApplyEnv overlays ARCHDOCS_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	set(&c.Source.Kind, EnvSource)
	set(&c.Source.BasePath, EnvDocsPath)
	set(&c.Source.Owner, EnvGitHubOwner)
	set(&c.Source.Repository, EnvGitHubRepo)
	set(&c.Source.Branch, EnvGitHubBranch)
	set(&c.Server.HTTPAddr, EnvHTTPAddr)

	if v := strings.TrimSpace(getenv(EnvWatch)); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvWatch, v, err)
		}
		c.Watch = watch
	}
	return nil
}

// Validate rejects unknown source kinds and category names and remote
// sources without a repository.
func (c *Config) Validate() error {
	kind := c.kind()
	if !kind.IsValid() {
		return fmt.Errorf("unknown source kind %q (expected local, github or git)", c.Source.Kind)
	}

	if _, err := c.Categories(); err != nil {
		return err
	}

	if kind.IsRemote() && c.Source.RemoteURL == "" {
		if strings.TrimSpace(c.Source.Owner) == "" || strings.TrimSpace(c.Source.Repository) == "" {
			return fmt.Errorf("%s source requires owner and repository", kind)
		}
	}
	if kind == source.KindLocal {
		if strings.TrimSpace(c.Source.BasePath) == "" {
			return fmt.Errorf("local source requires base_path")
		}
		if abs, err := filepath.Abs(fileops.ExpandPath(c.Source.BasePath)); err == nil && fileops.IsReservedDirectory(abs) {
			return fmt.Errorf("base_path %s is a system directory", c.Source.BasePath)
		}
	}
	if c.Source.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative")
	}
	return nil
}

func (c *Config) kind() source.Kind {
	return source.Kind(strings.ToLower(strings.TrimSpace(c.Source.Kind)))
}

// Categories parses the configured category names. An empty list means all
// categories.
func (c *Config) Categories() ([]docs.Category, error) {
	if len(c.Source.Categories) == 0 {
		return append([]docs.Category(nil), docs.AllCategories...), nil
	}

	seen := map[docs.Category]bool{}
	var cats []docs.Category
	for _, name := range c.Source.Categories {
		cat, err := docs.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if !seen[cat] {
			seen[cat] = true
			cats = append(cats, cat)
		}
	}
	return cats, nil
}

// SourceConfig resolves the source section into the opaque value handed to
// source.New. The token is left empty for the factory to resolve.
func (c *Config) SourceConfig() source.Config {
	cats, _ := c.Categories()
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.String()
	}

	basePath := c.Source.BasePath
	kind := c.kind()
	if kind == source.KindLocal {
		basePath = fileops.ExpandPath(basePath)
	}

	return source.Config{
		Kind:        kind,
		BasePath:    basePath,
		Owner:       c.Source.Owner,
		Repository:  c.Source.Repository,
		Branch:      c.Source.Branch,
		RemoteURL:   c.Source.RemoteURL,
		CloneDir:    c.Source.CloneDir,
		Categories:  names,
		Patterns:    c.Source.Patterns,
		MaxFileSize: c.Source.MaxFileSize,
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file with restrictive permissions (600) for security
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
