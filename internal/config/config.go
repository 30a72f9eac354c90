package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/weft-dev/weft/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "weft.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultCacheBackend is the default render cache backend.
	DefaultCacheBackend = "memory"
)

// Config represents the complete weft.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Cache contains render cache configuration.
	Cache CacheConfig `json:"cache,omitempty"`

	// Stream contains suspense streaming configuration.
	Stream StreamConfig `json:"stream,omitempty"`

	// Dev contains development settings.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`
}

// CacheConfig contains render cache settings.
type CacheConfig struct {
	// Backend selects the store: "memory", "sql", "s3", or "redis".
	Backend string `json:"backend,omitempty"`

	// MaxEntries caps the in-memory store. Ignored by other backends.
	MaxEntries int `json:"maxEntries,omitempty"`

	// TTL is how long entries are kept before the janitor drops them
	// (e.g. "10m"). Empty disables the janitor.
	TTL string `json:"ttl,omitempty"`

	// Freshness is the default freshness window for page reads:
	// "never", "always", or a duration like "30s".
	Freshness string `json:"freshness,omitempty"`
}

// StreamConfig contains suspense streaming settings.
type StreamConfig struct {
	// Concurrency bounds simultaneous fragment renders per request.
	Concurrency int `json:"concurrency,omitempty"`
}

// DevConfig contains development settings.
type DevConfig struct {
	// Reload enables the websocket live-reload endpoint.
	Reload bool `json:"reload,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Cache: CacheConfig{
			Backend:    DefaultCacheBackend,
			MaxEntries: 1024,
			Freshness:  "30s",
		},
		Stream: StreamConfig{
			Concurrency: 4,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for weft.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CategoryConfig, "E601", "config file not found").
				WithDetail("No weft.json found in " + filepath.Dir(path)).
				WithSuggestion("Create weft.json in the project root")
		}
		return nil, errors.New(errors.CategoryConfig, "E602", "config file unreadable").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CategoryConfig, "E603", "config file malformed").
			WithDetail("Failed to parse weft.json: " + err.Error()).
			WithSuggestion("Check that weft.json is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New(errors.CategoryConfig, "E604", "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New(errors.CategoryConfig, "E602", "config file unwritable").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CategoryConfig, "E602", "config file unwritable").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = DefaultCacheBackend
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 1024
	}
	if c.Cache.Freshness == "" {
		c.Cache.Freshness = "30s"
	}
	if c.Stream.Concurrency == 0 {
		c.Stream.Concurrency = 4
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.CategoryConfig, "E605", "invalid port").
			WithDetail("Port must be between 0 and 65535")
	}

	switch c.Cache.Backend {
	case "memory", "sql", "s3", "redis":
	default:
		return errors.New(errors.CategoryConfig, "E606", "unknown cache backend").
			WithDetail("Backend must be one of: memory, sql, s3, redis").
			WithSuggestion("Set cache.backend to \"memory\" if unsure")
	}

	if c.Cache.TTL != "" {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return errors.New(errors.CategoryConfig, "E607", "invalid cache TTL").
				WithDetail("TTL must be a duration like \"10m\"").
				Wrap(err)
		}
	}

	if _, err := c.FreshnessWindow(); err != nil {
		return err
	}

	if c.Stream.Concurrency < 0 {
		return errors.New(errors.CategoryConfig, "E608", "invalid stream concurrency").
			WithDetail("Concurrency must be zero or positive")
	}

	return nil
}

// Address returns the listen address for the server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// FreshnessWindow parses Cache.Freshness. Negative means never stale
// by age, zero means always stale.
func (c *Config) FreshnessWindow() (time.Duration, error) {
	switch c.Cache.Freshness {
	case "", "never":
		return -1, nil
	case "always":
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.Freshness)
	if err != nil {
		return 0, errors.New(errors.CategoryConfig, "E609", "invalid cache freshness").
			WithDetail("Freshness must be \"never\", \"always\", or a duration like \"30s\"").
			Wrap(err)
	}
	return d, nil
}

// CacheTTL parses Cache.TTL, returning zero when unset.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Cache.TTL)
	return d
}
