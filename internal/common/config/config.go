// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Channels ChannelsConfig `mapstructure:"channels"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Camunda  CamundaConfig  `mapstructure:"camunda"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// StorageConfig selects where templates, users and inbox entries live.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Notification Configuration ---

type CacheConfig struct {
	TTL int `mapstructure:"ttl"` // seconds
}

type DispatchConfig struct {
	ChannelTimeout int `mapstructure:"channel_timeout"` // milliseconds
}

// Email providers.
const (
	EmailProviderSES = "ses"
	EmailProviderLog = "log"
)

type ChannelsConfig struct {
	Email struct {
		Provider  string `mapstructure:"provider"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		SenderID string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	MaxRetries     int    `mapstructure:"max_retries"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
	// StartOffset applies when the group has no committed offset: "first" or "last".
	StartOffset string `mapstructure:"start_offset"`
}

const (
	KafkaOffsetFirst = "first"
	KafkaOffsetLast  = "last"
)

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type SeedConfig struct {
	OnStartup bool `mapstructure:"on_startup"`
}
