package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// GeminiConfig holds the generative AI endpoint configuration
type GeminiConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// Enabled reports whether journal events should be published
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RedisConfig holds the commentary cache configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Enabled reports whether the commentary cache is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// LoggerConfig holds the logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ErrMissingJWTSecret is returned by Validate when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"server.host":             "SERVER_HOST",
	"server.port":             "SERVER_PORT",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASS",
	"database.name":           "DB_NAME",
	"database.sslmode":        "DB_SSLMODE",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.token_ttl":          "JWT_TTL",
	"gemini.api_key":          "GEMINI_API_KEY",
	"gemini.base_url":         "GEMINI_BASE_URL",
	"gemini.model":            "GEMINI_MODEL",
	"gemini.timeout":          "GEMINI_TIMEOUT",
	"gemini.rate_limit":       "GEMINI_RATE_LIMIT",
	"gemini.rate_limit_burst": "GEMINI_RATE_LIMIT_BURST",
	"kafka.brokers":           "KAFKA_BROKERS",
	"kafka.topic":             "KAFKA_TOPIC",
	"kafka.group_id":          "KAFKA_GROUP_ID",
	"redis.addr":              "REDIS_ADDR",
	"redis.password":          "REDIS_PASSWORD",
	"redis.db":                "REDIS_DB",
	"redis.ttl":               "COMMENTARY_CACHE_TTL",
	"logger.level":            "LOG_LEVEL",
	"logger.format":           "LOG_FORMAT",
}

// Load reads configuration from an optional .env file and environment variables.
// The returned Config is not mutated after startup.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "tradejournal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.rate_limit", 2)
	v.SetDefault("gemini.rate_limit_burst", 2)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "journal-events")
	v.SetDefault("kafka.group_id", "journal-audit")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// Validate checks settings the service cannot start without
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// splitList flattens comma separated entries, which is how env vars carry lists.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
