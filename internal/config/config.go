package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/oncallhq/pager-api/internal/channel"
	"github.com/oncallhq/pager-api/internal/repository/postgres"
	messagingredis "github.com/oncallhq/pager-api/pkg/messaging/redis"
	queueredis "github.com/oncallhq/pager-api/pkg/queue/redis"
	"github.com/oncallhq/pager-api/pkg/worker"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Channels  ChannelsConfig  `mapstructure:"channels"`
	Retention RetentionConfig `mapstructure:"retention"`

	// Worker is tuned through the environment, not the YAML file, so a
	// deployment can scale poll behavior without a config rollout.
	Worker worker.RunnerConfig `mapstructure:"-"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RedisConfig struct {
	URL                 string `mapstructure:"url"`
	QueueKey            string `mapstructure:"queue_key"`
	MaxRetries          int    `mapstructure:"max_retries"`
	RetryBackoffSeconds int    `mapstructure:"retry_backoff_seconds"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type ChannelsConfig struct {
	Slack   channel.SlackConfig   `mapstructure:"slack"`
	Email   channel.EmailConfig   `mapstructure:"email"`
	Gateway channel.GatewayConfig `mapstructure:"gateway"`
}

type RetentionConfig struct {
	AttemptDays     int `mapstructure:"attempt_days"`
	CleanupInterval int `mapstructure:"cleanup_interval_hours"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Worker); err != nil {
		return nil, fmt.Errorf("failed to process worker environment: %w", err)
	}

	if config.Retention.AttemptDays <= 0 {
		config.Retention.AttemptDays = 90
	}
	if config.Retention.CleanupInterval <= 0 {
		config.Retention.CleanupInterval = 24
	}

	return &config, nil
}

func (c *Config) ToDatabaseConfig() postgres.DatabaseConfig {
	return postgres.DatabaseConfig{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Name:     c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}
}

func (c *Config) ToQueueConfig() queueredis.Config {
	return queueredis.Config{
		URL:          c.Redis.URL,
		Key:          c.Redis.QueueKey,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: time.Duration(c.Redis.RetryBackoffSeconds) * time.Second,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}

func (c *Config) ToBrokerConfig() messagingredis.Config {
	return messagingredis.Config{
		URL:          c.Redis.URL,
		MaxRetries:   c.Redis.MaxRetries,
		RetryBackoff: time.Duration(c.Redis.RetryBackoffSeconds) * time.Second,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}
