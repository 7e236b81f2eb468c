// Package config loads process configuration from the environment, with an
// optional config file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported storage backend names.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

type Config struct {
	HTTPPort      string `mapstructure:"http_port"`
	Storage       string `mapstructure:"storage"`
	DataDir       string `mapstructure:"data_dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`

	// Empty MongoURI disables the remote store: favorites run local-only
	// and the profile endpoint is unavailable.
	MongoURI     string        `mapstructure:"mongo_uri"`
	MongoDBName  string        `mapstructure:"mongo_db_name"`
	MongoMaxPool uint64        `mapstructure:"mongo_max_pool"`
	MongoMinPool uint64        `mapstructure:"mongo_min_pool"`
	MongoTimeout time.Duration `mapstructure:"mongo_timeout"`

	// Empty KafkaBrokers disables the trip-completed consumer.
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`

	// BCP 47 tag for the category collation fallback.
	CollationLang string `mapstructure:"collation_lang"`
}

var (
	ErrStorageUnknown = errors.New("unknown storage backend")
	ErrDataDirEmpty   = errors.New("data_dir must not be empty for file storage")
	ErrRedisAddrEmpty = errors.New("redis_addr must not be empty for redis storage")
)

var knownStorage = map[string]bool{
	StorageMemory: true,
	StorageFile:   true,
	StorageRedis:  true,
}

func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", "8080")
	v.SetDefault("storage", StorageFile)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_db_name", "listacompra")
	v.SetDefault("mongo_max_pool", 20)
	v.SetDefault("mongo_min_pool", 2)
	v.SetDefault("mongo_timeout", "10s")
	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("kafka_topic", "trip-completed")
	v.SetDefault("collation_lang", "es")

	v.SetEnvPrefix("LISTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !knownStorage[c.Storage] {
		return fmt.Errorf("%w: %q", ErrStorageUnknown, c.Storage)
	}
	if c.Storage == StorageFile && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Storage == StorageRedis && c.RedisAddr == "" {
		return ErrRedisAddrEmpty
	}
	return nil
}
