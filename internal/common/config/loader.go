// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml, merges config.{APP_ENVIRONMENT}.yaml over it and applies env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the yaml.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "notification-dispatcher")
	v.SetDefault("app.environment", "development")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15000)
	v.SetDefault("server.write_timeout", 15000)
	v.SetDefault("server.shutdown_timeout", 10000)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.auto_migrate", true)
	v.SetDefault("database.mongo.uri", "")
	v.SetDefault("database.mongo.database", "notifications")
	v.SetDefault("database.redis.enabled", false)
	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.elasticsearch.enabled", false)
	v.SetDefault("database.elasticsearch.index", "notification-deliveries")
	v.SetDefault("cache.ttl", 3600)
	v.SetDefault("dispatch.channel_timeout", 10000)
	v.SetDefault("channels.email.provider", EmailProviderLog)
	v.SetDefault("channels.email.from_email", "")
	v.SetDefault("channels.sms.enabled", false)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("camunda.enabled", false)
	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "notification-requests")
	v.SetDefault("kafka.group_id", "notification-dispatcher")
	v.SetDefault("kafka.start_offset", KafkaOffsetFirst)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("seed.on_startup", true)
}

// applyDefaults sets default values for optional fields left at zero after unmarshal
func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendMemory
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 3600
	}
	if cfg.Dispatch.ChannelTimeout <= 0 {
		cfg.Dispatch.ChannelTimeout = 10000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}
	if cfg.Camunda.MaxRetries == 0 {
		cfg.Camunda.MaxRetries = 3
	}

	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Channels.Email.Provider == "" {
		cfg.Channels.Email.Provider = EmailProviderLog
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case BackendMongo:
		if cfg.Database.Mongo.URI == "" {
			return fmt.Errorf("database.mongo.uri is required")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, postgres, mongo", cfg.Storage.Backend)
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when redis is enabled")
	}
	if cfg.Database.Elasticsearch.Enabled && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required when elasticsearch is enabled")
	}

	switch cfg.Channels.Email.Provider {
	case EmailProviderLog:
	case EmailProviderSES:
		if cfg.Channels.Email.FromEmail == "" {
			return fmt.Errorf("channels.email.from_email is required for the ses provider")
		}
	default:
		return fmt.Errorf("channels.email.provider %q is not one of ses, log", cfg.Channels.Email.Provider)
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}
	if cfg.Kafka.Enabled && (len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	switch cfg.Kafka.StartOffset {
	case "", KafkaOffsetFirst, KafkaOffsetLast:
	default:
		return fmt.Errorf("kafka.start_offset %q is not one of first, last", cfg.Kafka.StartOffset)
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// CacheTTL returns the template cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

// ChannelTimeout returns the per-channel delivery bound.
func (c *Config) ChannelTimeout() time.Duration {
	return GetDuration(c.Dispatch.ChannelTimeout)
}
