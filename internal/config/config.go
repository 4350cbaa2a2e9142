package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. When configFile is empty the
// standard search paths are used and a missing file is not an error.
func New(configFile string) (*Config, error) {
	// A .env file is optional; values already in the environment win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/site-categorizer/")
		v.AddConfigPath("$HOME/.site-categorizer")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("CATEGORIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Backend selection
	v.SetDefault("api.mode", ModeMock)
	v.SetDefault("api.base_url", "http://localhost:8001/api")
	v.SetDefault("api.timeout", "30s")

	// Simulated backend
	v.SetDefault("mock.analyze_delay_min", "1s")
	v.SetDefault("mock.analyze_delay_max", "3s")
	v.SetDefault("mock.batch_item_delay", "300ms")
	v.SetDefault("mock.batch_item_jitter", "500ms")
	v.SetDefault("mock.csv_delay_min", "2s")
	v.SetDefault("mock.csv_delay_max", "4s")
	v.SetDefault("mock.reference_delay", "300ms")
	v.SetDefault("mock.history_delay_min", "500ms")
	v.SetDefault("mock.history_delay_max", "1500ms")
	v.SetDefault("mock.failure_rate", 0.05)
	v.SetDefault("mock.batch_failure_rate", 0.10)
	v.SetDefault("mock.csv_url_count", 5)
	v.SetDefault("mock.history_pool_size", 50)
	v.SetDefault("mock.record_history", true)
	v.SetDefault("mock.seed", 0)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "168h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "./data/url_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/categorizer")
	v.SetDefault("cache.redis_address", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// HTTP front end
	v.SetDefault("server.listen_address", "0.0.0.0:8001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3001"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a single key, used for command line flags.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
