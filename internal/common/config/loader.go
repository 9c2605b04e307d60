// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration in layers: .env file, config.yaml,
// config.{environment}.yaml, then environment variables. Later layers win.
// A missing config file is fine; the defaults plus environment variables
// are a complete configuration for container deployments.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if root, err := findProjectRoot(); err == nil {
		v.AddConfigPath(root)
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	if env != "" && env != "development" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("merge %s config: %w", env, err)
			}
		}
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads one explicit config file, applying the same defaults
// and validation as Load. Used by the CLI tools.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found in the working directory or the
// project root. Absent files are not an error.
func loadEnvFile() {
	candidates := []string{".env"}
	if root, err := findProjectRoot(); err == nil {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// findProjectRoot walks up from the working directory to the first
// directory containing go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above working directory")
		}
		dir = parent
	}
}

// setDefaults registers every key with its default. Registering keys also
// lets AutomaticEnv pick up variables for keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "notification-engine")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.port", 8080)

	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)

	v.SetDefault("database.redis.host", "")
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("database.elasticsearch.addresses", []string{})
	v.SetDefault("database.elasticsearch.username", "")
	v.SetDefault("database.elasticsearch.password", "")

	v.SetDefault("dispatch.default_language", "en")
	v.SetDefault("dispatch.max_retries", 3)
	v.SetDefault("dispatch.provider_timeout_ms", 10000)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval_ms", 120000)
	v.SetDefault("scheduler.batch_size", 50)

	v.SetDefault("template_cache.enabled", true)
	v.SetDefault("template_cache.ttl_ms", 300000)

	v.SetDefault("providers.sendgrid.base_url", "https://api.sendgrid.com")
	v.SetDefault("providers.resend.base_url", "https://api.resend.com")
	v.SetDefault("providers.twilio.base_url", "https://api.twilio.com")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.index", "notification-audit")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// expandEnvVars substitutes ${VAR} references in string values so secrets
// can live in the environment while structure lives in YAML.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		if s, ok := v.Get(key).(string); ok && strings.Contains(s, "${") {
			v.Set(key, os.ExpandEnv(s))
		}
	}
}

// overrideFromEnv fills still-empty connection fields from conventional
// variable names, so bare-container deployments need no config file.
func overrideFromEnv(cfg *Config) {
	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = os.Getenv("POSTGRES_HOST")
	}
	if p := envInt("POSTGRES_PORT"); p != 0 && cfg.Database.Postgres.Port == 5432 {
		cfg.Database.Postgres.Port = p
	}
	if cfg.Database.Postgres.User == "" {
		cfg.Database.Postgres.User = os.Getenv("POSTGRES_USER")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")
	}
	if cfg.Database.Postgres.Database == "" {
		cfg.Database.Postgres.Database = os.Getenv("POSTGRES_DB")
	}

	if cfg.Database.Redis.Host == "" {
		cfg.Database.Redis.Host = os.Getenv("REDIS_HOST")
	}
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}

	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
			cfg.Database.Elasticsearch.Addresses = []string{url}
		}
	}
}

func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// validateConfig rejects configurations the daemon cannot start with.
func validateConfig(cfg *Config) error {
	var missing []string
	if cfg.Database.Postgres.Host == "" {
		missing = append(missing, "database.postgres.host")
	}
	if cfg.Database.Postgres.User == "" {
		missing = append(missing, "database.postgres.user")
	}
	if cfg.Database.Postgres.Database == "" {
		missing = append(missing, "database.postgres.database")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if cfg.Dispatch.MaxRetries < 1 {
		return fmt.Errorf("dispatch.max_retries must be at least 1, got %d", cfg.Dispatch.MaxRetries)
	}
	if cfg.Scheduler.BatchSize < 1 {
		return fmt.Errorf("scheduler.batch_size must be at least 1, got %d", cfg.Scheduler.BatchSize)
	}
	if cfg.Scheduler.IntervalMs < 1000 {
		return fmt.Errorf("scheduler.interval_ms must be at least 1000, got %d", cfg.Scheduler.IntervalMs)
	}
	if cfg.Audit.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("audit.enabled requires database.elasticsearch.addresses")
	}
	return nil
}
