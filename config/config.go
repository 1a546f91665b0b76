// Package config loads the service configuration from defaults, an optional
// config file, an optional .env file and FOODAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "FOODAPI"

type Config struct {
	Env     string        `mapstructure:"env"`
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Elastic ElasticConfig `mapstructure:"elastic"`
	Session SessionConfig `mapstructure:"session"`
	OTP     OTPConfig     `mapstructure:"otp"`
	SMTP    SMTPConfig    `mapstructure:"smtp"`
	Orders  OrdersConfig  `mapstructure:"orders"`
	Offers  OffersConfig  `mapstructure:"offers"`
	Admin   AdminConfig   `mapstructure:"admin"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

type MongoConfig struct {
	URI          string        `mapstructure:"uri"`
	Database     string        `mapstructure:"database"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Transactions bool          `mapstructure:"transactions"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	LogTopic   string   `mapstructure:"log_topic"`
	OrderTopic string   `mapstructure:"order_topic"`
}

type ElasticConfig struct {
	Addresses     []string      `mapstructure:"addresses"`
	Index         string        `mapstructure:"index"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	GroupID       string        `mapstructure:"group_id"`
}

type SessionConfig struct {
	Secret       string        `mapstructure:"secret"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type OTPConfig struct {
	TTL            time.Duration `mapstructure:"ttl"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	ResendCooldown time.Duration `mapstructure:"resend_cooldown"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type OrdersConfig struct {
	ReadyTime       int    `mapstructure:"ready_time"`
	StatusPolicy    string `mapstructure:"status_policy"`
	UnresolvedItems string `mapstructure:"unresolved_items"`
}

type OffersConfig struct {
	Validity time.Duration `mapstructure:"validity"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")

	v.SetDefault("http.addr", "127.0.0.1:8000")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.allowed_origins", []string{"*"})

	v.SetDefault("metrics.addr", ":9464")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service", "foodapi")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "foodapi")
	v.SetDefault("mongo.timeout", 5*time.Second)
	v.SetDefault("mongo.transactions", false)

	v.SetDefault("redis.url", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.log_topic", "logs")
	v.SetDefault("kafka.order_topic", "order-events")

	v.SetDefault("elastic.addresses", []string{"http://localhost:9200"})
	v.SetDefault("elastic.index", "logs")
	v.SetDefault("elastic.batch_size", 100)
	v.SetDefault("elastic.flush_interval", 5*time.Second)
	v.SetDefault("elastic.group_id", "es-pusher")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_secure", false)

	v.SetDefault("otp.ttl", 10*time.Minute)
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.resend_cooldown", time.Minute)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "no-reply@foodapi.local")

	v.SetDefault("orders.ready_time", 25)
	v.SetDefault("orders.status_policy", "strict")
	v.SetDefault("orders.unresolved_items", "reject")

	v.SetDefault("offers.validity", 240*time.Hour)

	v.SetDefault("admin.api_key", "")
}

// Load reads the configuration. Config files are optional; extra search paths
// are tried before the defaults ("." and /etc/foodapi).
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/foodapi")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		if c.Production() {
			return errors.New("config: session.secret is required in production")
		}
		c.Session.Secret = "dev-session-secret"
	}
	switch c.Orders.StatusPolicy {
	case "strict", "open":
	default:
		return fmt.Errorf("config: orders.status_policy must be strict or open, got %q", c.Orders.StatusPolicy)
	}
	switch c.Orders.UnresolvedItems {
	case "reject", "drop":
	default:
		return fmt.Errorf("config: orders.unresolved_items must be reject or drop, got %q", c.Orders.UnresolvedItems)
	}
	if c.Mongo.Timeout <= 0 {
		c.Mongo.Timeout = 5 * time.Second
	}
	return nil
}
