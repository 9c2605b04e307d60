// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration of the dispatch engine.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Dispatch      DispatchConfig      `mapstructure:"dispatch"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	TemplateCache TemplateCacheConfig `mapstructure:"template_cache"`
	Providers     ProvidersConfig     `mapstructure:"providers"`
	Audit         AuditConfig         `mapstructure:"audit"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// AppConfig identifies the process.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
}

// ServerConfig configures the health/metrics HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig groups the backing stores.
type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// PostgresConfig configures the system of record.
type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
}

// GetDSN builds the lib/pq connection string.
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig configures the template resolution cache.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GetAddr returns the host:port pair for the go-redis client.
func (c RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig configures the optional audit index cluster.
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// DispatchConfig holds orchestrator-level knobs.
type DispatchConfig struct {
	DefaultLanguage   string `mapstructure:"default_language"`
	MaxRetries        int    `mapstructure:"max_retries"`
	ProviderTimeoutMs int    `mapstructure:"provider_timeout_ms"`
}

// GetProviderTimeout returns the bounded per-call provider timeout.
func (c DispatchConfig) GetProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutMs) * time.Millisecond
}

// SchedulerConfig holds the retry sweep knobs.
type SchedulerConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	IntervalMs int  `mapstructure:"interval_ms"`
	BatchSize  int  `mapstructure:"batch_size"`
}

// GetInterval returns the sweep period.
func (c SchedulerConfig) GetInterval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// TemplateCacheConfig holds the Redis read-through cache knobs.
type TemplateCacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTLMs   int  `mapstructure:"ttl_ms"`
}

// GetTTL returns the cache entry lifetime.
func (c TemplateCacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// ProvidersConfig carries the provider API endpoints. Base URLs are
// configurable so staging and tests can point at substitutes; credentials
// stay per-tenant in channel settings.
type ProvidersConfig struct {
	Sendgrid ProviderEndpoint `mapstructure:"sendgrid"`
	Resend   ProviderEndpoint `mapstructure:"resend"`
	Twilio   ProviderEndpoint `mapstructure:"twilio"`
}

// ProviderEndpoint is one provider's API location.
type ProviderEndpoint struct {
	BaseURL string `mapstructure:"base_url"`
}

// AuditConfig configures the optional Elasticsearch mirror of terminal
// ledger outcomes.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Index   string `mapstructure:"index"`
}

// LoggingConfig configures the zap core.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}
