// Package config provides configuration loading and management for the scouting data server.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/citruscircuits/grosbeak/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the server
const EnvPrefix = "GROSBEAK"

const (
	// StorageTypeFile stores collections as JSON files on the local filesystem
	StorageTypeFile = "file"

	// StorageTypePostgres stores collections in PostgreSQL JSONB rows
	StorageTypePostgres = "postgres"

	// StorageTypeSQLite stores collections in a local SQLite database
	StorageTypeSQLite = "sqlite"

	// StorageTypeMemory keeps everything in process memory (development only)
	StorageTypeMemory = "memory"
)

const (
	defaultEventKey      = "dev"
	defaultAPIKeyHeader  = "X-API-Key"
	defaultCacheTTL      = 30 * time.Second
	defaultPasswordEnv   = EnvPrefix + "_DATABASE_PASSWORD"
	defaultDatabasePort  = 5432
	defaultDatabaseSSL   = "require"
	defaultFileDirectory = "./data"
)

// eventKeyPattern restricts event keys to what every storage backend can
// address safely (directory names, SQL parameters, gjson paths).
var eventKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidEventKey reports whether key can name an event database.
func ValidEventKey(key string) bool {
	return eventKeyPattern.MatchString(key)
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// EventKey is the event served when a request does not name one
	// Defaults to "dev" if not specified
	EventKey string `yaml:"eventKey,omitempty"`

	Storage     StorageConfig      `yaml:"storage"`
	Cache       *CacheConfig       `yaml:"cache,omitempty"`
	Auth        *AuthConfig        `yaml:"auth,omitempty"`
	Aggregation *AggregationConfig `yaml:"aggregation,omitempty"`
	Telemetry   *telemetry.Config  `yaml:"telemetry,omitempty"`
}

// StorageConfig selects and configures the record store
type StorageConfig struct {
	// Type is one of file, postgres, sqlite or memory
	Type string `yaml:"type"`

	File     *FileConfig     `yaml:"file,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
}

// FileConfig defines the JSON file store layout root
type FileConfig struct {
	// Path is the root directory. Collections live in <path>/<event>/<collection>.json
	Path string `yaml:"path"`
}

// SQLiteConfig defines the SQLite store
type SQLiteConfig struct {
	// Path is the database file
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks (e.g., "5s")
	BusyTimeout string `yaml:"busyTimeout,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`

	// ConnectRetryTimeout bounds the startup retries (e.g., "30s")
	ConnectRetryTimeout string `yaml:"connectRetryTimeout,omitempty"`
}

// CacheConfig configures the optional viewer cache
type CacheConfig struct {
	// RedisURL is the redis connection string (e.g., "redis://localhost:6379/0")
	RedisURL string `yaml:"redisURL"`

	// TTL is how long an aggregated view stays cached (e.g., "30s")
	TTL string `yaml:"ttl,omitempty"`
}

// AuthConfig configures API key authentication
type AuthConfig struct {
	// Disabled turns authentication off (development only)
	Disabled bool `yaml:"disabled,omitempty"`

	// Header is the request header carrying the API key
	// Defaults to "X-API-Key"
	Header string `yaml:"header,omitempty"`

	// BootstrapAdmin creates an admin credential when the store has none
	BootstrapAdmin bool `yaml:"bootstrapAdmin,omitempty"`
}

// AggregationConfig tunes the viewer builds
type AggregationConfig struct {
	// FetchConcurrency is how many collections are fetched in parallel
	FetchConcurrency int `yaml:"fetchConcurrency,omitempty"`
}

// GetBusyTimeout returns the SQLite lock wait, defaulting to 5s
func (s *SQLiteConfig) GetBusyTimeout() time.Duration {
	if s == nil || s.BusyTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(s.BusyTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from GROSBEAK_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(defaultPasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", defaultPasswordEnv,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = defaultDatabaseSSL
	}

	port := d.Port
	if port == 0 {
		port = defaultDatabasePort
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		port,
		d.Database,
		sslMode,
	), nil
}

// GetConnectRetryTimeout returns the startup retry budget, 30s by default
func (d *DatabaseConfig) GetConnectRetryTimeout() time.Duration {
	if d.ConnectRetryTimeout == "" {
		return 30 * time.Second
	}
	timeout, err := time.ParseDuration(d.ConnectRetryTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return timeout
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetEventKey returns the default event key, using "dev" if not specified
func (c *Config) GetEventKey() string {
	if c.EventKey == "" {
		return defaultEventKey
	}
	return c.EventKey
}

// GetStorageType returns the configured storage type, defaulting to file
func (c *Config) GetStorageType() string {
	if c.Storage.Type == "" {
		return StorageTypeFile
	}
	return c.Storage.Type
}

// GetFileStorageDir returns the root of the file store
func (c *Config) GetFileStorageDir() string {
	if c.Storage.File == nil || c.Storage.File.Path == "" {
		return defaultFileDirectory
	}
	return c.Storage.File.Path
}

// GetAPIKeyHeader returns the header that carries API keys
func (c *Config) GetAPIKeyHeader() string {
	if c.Auth == nil || c.Auth.Header == "" {
		return defaultAPIKeyHeader
	}
	return c.Auth.Header
}

// AuthEnabled reports whether API key authentication is active
func (c *Config) AuthEnabled() bool {
	return c.Auth == nil || !c.Auth.Disabled
}

// GetFetchConcurrency returns the configured prefetch width, at least 1
func (c *Config) GetFetchConcurrency() int {
	if c.Aggregation == nil || c.Aggregation.FetchConcurrency < 1 {
		return 1
	}
	return c.Aggregation.FetchConcurrency
}

// GetCacheTTL returns the viewer cache TTL
func (c *CacheConfig) GetCacheTTL() time.Duration {
	if c == nil || c.TTL == "" {
		return defaultCacheTTL
	}
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return defaultCacheTTL
	}
	return ttl
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.EventKey != "" && !ValidEventKey(c.EventKey) {
		return fmt.Errorf("eventKey %q must match %s", c.EventKey, eventKeyPattern)
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if c.Cache != nil {
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redisURL is required when cache is configured")
		}
		if c.Cache.TTL != "" {
			if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
				return fmt.Errorf("cache.ttl must be a valid duration (e.g., '30s'): %w", err)
			}
		}
	}

	if c.Aggregation != nil && c.Aggregation.FetchConcurrency < 0 {
		return fmt.Errorf("aggregation.fetchConcurrency cannot be negative")
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

// validateStorage validates the storage section for the selected type
func (c *Config) validateStorage() error {
	switch c.GetStorageType() {
	case StorageTypeFile, StorageTypeMemory:
		return nil
	case StorageTypePostgres:
		return validateDatabaseConfig(c.Storage.Database)
	case StorageTypeSQLite:
		if c.Storage.SQLite == nil || c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required for sqlite storage")
		}
		if c.Storage.SQLite.BusyTimeout != "" {
			if _, err := time.ParseDuration(c.Storage.SQLite.BusyTimeout); err != nil {
				return fmt.Errorf("storage.sqlite.busyTimeout must be a valid duration: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("storage.type must be one of %s, %s, %s or %s, got %q",
			StorageTypeFile, StorageTypePostgres, StorageTypeSQLite, StorageTypeMemory, c.Storage.Type)
	}
}

// validateDatabaseConfig validates PostgreSQL settings
func validateDatabaseConfig(db *DatabaseConfig) error {
	if db == nil {
		return fmt.Errorf("storage.database is required for postgres storage")
	}
	if db.Host == "" {
		return fmt.Errorf("storage.database.host is required")
	}
	if db.User == "" {
		return fmt.Errorf("storage.database.user is required")
	}
	if db.Database == "" {
		return fmt.Errorf("storage.database.database is required")
	}
	if db.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(db.ConnMaxLifetime); err != nil {
			return fmt.Errorf("storage.database.connMaxLifetime must be a valid duration: %w", err)
		}
	}
	if db.ConnectRetryTimeout != "" {
		if _, err := time.ParseDuration(db.ConnectRetryTimeout); err != nil {
			return fmt.Errorf("storage.database.connectRetryTimeout must be a valid duration: %w", err)
		}
	}
	return nil
}
