package config

import (
	"fmt"
	"github.com/spf13/viper"
	"log/slog"
	"paysim/internal/payments"
	"time"
)

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	StreamName    string        `mapstructure:"stream_name"`
	StreamGroup   string        `mapstructure:"stream_group"`
	ConsumerName  string        `mapstructure:"consumer_name"`
	ResultsStream string        `mapstructure:"results_stream"`
	BatchSize     int64         `mapstructure:"batch_size"`
	Block         time.Duration `mapstructure:"block"`
}

type TelemetryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	JaegerURL   string  `mapstructure:"jaeger_url"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type RulesConfig struct {
	TransactionLimit          int64    `mapstructure:"transaction_limit"`
	TimeoutDivisor            int64    `mapstructure:"timeout_divisor"`
	MaxLoyaltyDiscount        int64    `mapstructure:"max_loyalty_discount"`
	FraudPrefixes             []string `mapstructure:"fraud_prefixes"`
	InsufficientFundsPrefixes []string `mapstructure:"insufficient_funds_prefixes"`
	BlockedPrefixes           []string `mapstructure:"blocked_prefixes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AppConfig struct {
	Server    *ServerConfig    `mapstructure:"server"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	Telemetry *TelemetryConfig `mapstructure:"telemetry"`
	Rules     *RulesConfig     `mapstructure:"rules"`
	Log       *LogConfig       `mapstructure:"log"`
	Client    *ClientConfig    `mapstructure:"client"`
}

func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("server.port", 1323)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.stream_name", "payments")
	v.SetDefault("redis.stream_group", "payments-group")
	v.SetDefault("redis.consumer_name", "worker-1")
	v.SetDefault("redis.results_stream", "payment-results")
	v.SetDefault("redis.batch_size", 200)
	v.SetDefault("redis.block", 5*time.Millisecond)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "paysim")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.jaeger_url", "http://jaeger:14268/api/traces")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("rules.transaction_limit", payments.DefaultTransactionLimit)
	v.SetDefault("rules.timeout_divisor", payments.DefaultTimeoutDivisor)
	v.SetDefault("rules.max_loyalty_discount", payments.DefaultMaxLoyaltyDiscount)
	v.SetDefault("rules.fraud_prefixes", payments.DefaultFraudPrefixes)
	v.SetDefault("rules.insufficient_funds_prefixes", payments.DefaultInsufficientFundsPrefixes)
	v.SetDefault("rules.blocked_prefixes", payments.DefaultBlockedPrefixes)
	v.SetDefault("log.level", "info")
	v.SetDefault("client.base_url", "http://localhost:1323")
	v.SetDefault("client.timeout", 5*time.Second)

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.host", "SERVER_HOST")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("redis.stream_name", "REDIS_STREAM_NAME")
	_ = v.BindEnv("redis.stream_group", "REDIS_STREAM_GROUP")
	_ = v.BindEnv("redis.consumer_name", "REDIS_CONSUMER_NAME")
	_ = v.BindEnv("redis.results_stream", "REDIS_RESULTS_STREAM")
	_ = v.BindEnv("redis.batch_size", "REDIS_BATCH_SIZE")
	_ = v.BindEnv("redis.block", "REDIS_BLOCK")
	_ = v.BindEnv("telemetry.enabled", "TELEMETRY_ENABLED")
	_ = v.BindEnv("telemetry.service_name", "TELEMETRY_SERVICE_NAME")
	_ = v.BindEnv("telemetry.environment", "TELEMETRY_ENVIRONMENT")
	_ = v.BindEnv("telemetry.jaeger_url", "JAEGER_URL")
	_ = v.BindEnv("telemetry.sample_ratio", "TELEMETRY_SAMPLE_RATIO")
	_ = v.BindEnv("rules.transaction_limit", "RULES_TRANSACTION_LIMIT")
	_ = v.BindEnv("rules.timeout_divisor", "RULES_TIMEOUT_DIVISOR")
	_ = v.BindEnv("rules.max_loyalty_discount", "RULES_MAX_LOYALTY_DISCOUNT")
	_ = v.BindEnv("rules.fraud_prefixes", "RULES_FRAUD_PREFIXES")
	_ = v.BindEnv("rules.insufficient_funds_prefixes", "RULES_INSUFFICIENT_FUNDS_PREFIXES")
	_ = v.BindEnv("rules.blocked_prefixes", "RULES_BLOCKED_PREFIXES")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("client.base_url", "PAYSIM_URL")
	_ = v.BindEnv("client.timeout", "PAYSIM_TIMEOUT")

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Rules.ProcessingRules().Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *RulesConfig) ProcessingRules() payments.Rules {
	return payments.Rules{
		TransactionLimit:          c.TransactionLimit,
		TimeoutDivisor:            c.TimeoutDivisor,
		MaxLoyaltyDiscount:        c.MaxLoyaltyDiscount,
		FraudPrefixes:             c.FraudPrefixes,
		InsufficientFundsPrefixes: c.InsufficientFundsPrefixes,
		BlockedPrefixes:           c.BlockedPrefixes,
	}
}

func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
