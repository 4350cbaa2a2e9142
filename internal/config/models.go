package config

import (
	"fmt"
	"time"
)

// Backend modes accepted by api.mode
const (
	ModeMock = "mock"
	ModeReal = "real"
)

// APIConfig represents the backend selection and the real transport settings
type APIConfig struct {
	Mode    string
	BaseURL string
	Timeout time.Duration
}

// DelayRange is a half-open interval [Min, Max) of simulated latency
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// MockConfig represents the configuration for the simulated backend
type MockConfig struct {
	AnalyzeDelay     DelayRange
	BatchItemDelay   time.Duration
	BatchItemJitter  time.Duration
	CSVDelay         DelayRange
	ReferenceDelay   time.Duration
	HistoryDelay     DelayRange
	FailureRate      float64
	BatchFailureRate float64
	CSVURLCount      int
	HistoryPoolSize  int
	RecordHistory    bool
	Seed             int64
}

// CacheConfig represents the configuration for the result cache
type CacheConfig struct {
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddress     string
	RedisPassword    string
	RedisDB          int
}

// ServerConfig represents the configuration for the HTTP front end
type ServerConfig struct {
	ListenAddress  string
	AllowedOrigins []string
}

// GetAPI returns the API configuration
func (c *Config) GetAPI() (APIConfig, error) {
	timeout, err := c.GetDuration("api.timeout")
	if err != nil {
		return APIConfig{}, err
	}
	return APIConfig{
		Mode:    c.GetString("api.mode"),
		BaseURL: c.GetString("api.base_url"),
		Timeout: timeout,
	}, nil
}

// GetMock returns the simulated backend configuration
func (c *Config) GetMock() (MockConfig, error) {
	var (
		mc  MockConfig
		err error
	)
	if mc.AnalyzeDelay, err = c.getRange("mock.analyze_delay"); err != nil {
		return MockConfig{}, err
	}
	if mc.CSVDelay, err = c.getRange("mock.csv_delay"); err != nil {
		return MockConfig{}, err
	}
	if mc.HistoryDelay, err = c.getRange("mock.history_delay"); err != nil {
		return MockConfig{}, err
	}
	if mc.BatchItemDelay, err = c.GetDuration("mock.batch_item_delay"); err != nil {
		return MockConfig{}, err
	}
	if mc.BatchItemJitter, err = c.GetDuration("mock.batch_item_jitter"); err != nil {
		return MockConfig{}, err
	}
	if mc.ReferenceDelay, err = c.GetDuration("mock.reference_delay"); err != nil {
		return MockConfig{}, err
	}

	mc.FailureRate = c.GetFloat64("mock.failure_rate")
	mc.BatchFailureRate = c.GetFloat64("mock.batch_failure_rate")
	if err := checkRate("mock.failure_rate", mc.FailureRate); err != nil {
		return MockConfig{}, err
	}
	if err := checkRate("mock.batch_failure_rate", mc.BatchFailureRate); err != nil {
		return MockConfig{}, err
	}

	mc.CSVURLCount = c.GetInt("mock.csv_url_count")
	mc.HistoryPoolSize = c.GetInt("mock.history_pool_size")
	if err := checkCount("mock.csv_url_count", mc.CSVURLCount, 1); err != nil {
		return MockConfig{}, err
	}
	if err := checkCount("mock.history_pool_size", mc.HistoryPoolSize, 0); err != nil {
		return MockConfig{}, err
	}
	mc.RecordHistory = c.GetBool("mock.record_history")
	mc.Seed = c.GetInt64("mock.seed")
	return mc, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddress:     c.GetString("cache.redis_address"),
		RedisPassword:    c.GetString("cache.redis_password"),
		RedisDB:          c.GetInt("cache.redis_db"),
	}, nil
}

// GetServer returns the HTTP front end configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:  c.GetString("server.listen_address"),
		AllowedOrigins: c.GetStringSlice("server.allowed_origins"),
	}
}

func (c *Config) getRange(prefix string) (DelayRange, error) {
	lo, err := c.GetDuration(prefix + "_min")
	if err != nil {
		return DelayRange{}, err
	}
	hi, err := c.GetDuration(prefix + "_max")
	if err != nil {
		return DelayRange{}, err
	}
	if hi < lo {
		return DelayRange{}, fmt.Errorf("%s_max (%s) is below %s_min (%s)", prefix, hi, prefix, lo)
	}
	return DelayRange{Min: lo, Max: hi}, nil
}

func checkRate(key string, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %.2f", key, rate)
	}
	return nil
}

func checkCount(key string, count, least int) error {
	if count < least {
		return fmt.Errorf("%s must be at least %d, got %d", key, least, count)
	}
	return nil
}
