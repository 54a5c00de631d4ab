package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	Email     EmailSettings     `mapstructure:"email"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name               string   `mapstructure:"name"`
	Env                string   `mapstructure:"env"`
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              int           `mapstructure:"db"`
	Password        string        `mapstructure:"password"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	RateLimitPrefix string        `mapstructure:"rate_limit_prefix"`
	RateLimitTTL    time.Duration `mapstructure:"rate_limit_ttl"`
}

// KafkaSettings configures the lifecycle event producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration      time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts    int           `mapstructure:"login_max_attempts"`
	RegisterMaxAttempts int           `mapstructure:"register_max_attempts"`
	RefreshMaxAttempts  int           `mapstructure:"refresh_max_attempts"`
	VerifyMaxAttempts   int           `mapstructure:"verify_max_attempts"`
}

type JWTSettings struct {
	AccessSecret  string `mapstructure:"access_secret"`
	RefreshSecret string `mapstructure:"refresh_secret"`
	Issuer        string `mapstructure:"issuer"`
}

// EmailSettings configures the outbound verification mail sender
type EmailSettings struct {
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SONARLY")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.cors_allowed_origins",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"redis.rate_limit_ttl",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"jwt.access_secret",
		"jwt.refresh_secret",
		"jwt.issuer",
		"email.from_address",
		"email.from_name",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.register_max_attempts",
		"rate_limit.refresh_max_attempts",
		"rate_limit.verify_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sonarly-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.cors_allowed_origins", []string{"*"})

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "sonarly")
	v.SetDefault("postgres.password", "sonarly_password")
	v.SetDefault("postgres.database", "sonarly")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "sonarly:rate-limit")
	v.SetDefault("redis.rate_limit_ttl", "10m")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "auth")
	v.SetDefault("kafka.async", true)

	// Secrets have no defaults; startup fails without them.
	v.SetDefault("jwt.issuer", "sonarly")

	v.SetDefault("email.from_address", "no-reply@sonarly.io")
	v.SetDefault("email.from_name", "Sonarly")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "sonarly-auth")
	v.SetDefault("telemetry.sampling_rate", 1.0)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.register_max_attempts", 3)
	v.SetDefault("rate_limit.refresh_max_attempts", 10)
	v.SetDefault("rate_limit.verify_max_attempts", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "SONARLY_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
