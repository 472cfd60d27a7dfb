package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Security  SecurityConfig  `mapstructure:"security"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Fees      FeesConfig      `mapstructure:"fees"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AdminConfig controls admin session issuance.
type AdminConfig struct {
	SecretHash  string        `mapstructure:"secret_hash"` // argon2id hash, see `gatewayctl hash-secret`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Issuer      string        `mapstructure:"issuer"`
}

// MinTokenSecretLen is the shortest HS256 key admin sessions accept.
const MinTokenSecretLen = 32

// Validate rejects settings under which admin sessions could be forged.
func (a AdminConfig) Validate() error {
	if len(a.TokenSecret) < MinTokenSecretLen {
		return fmt.Errorf("admin.token_secret must be at least %d bytes", MinTokenSecretLen)
	}
	if a.TokenTTL <= 0 {
		return fmt.Errorf("admin.token_ttl must be positive")
	}
	return nil
}

type SecurityConfig struct {
	APIKeyPepper string `mapstructure:"api_key_pepper"`
	AESKey       string `mapstructure:"aes_key"` // 32-byte hex-encoded key for AES-256
}

// ProcessorConfig describes the upstream checkout provider.
type ProcessorConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Token             string        `mapstructure:"token"`
	ShopID            string        `mapstructure:"shop_id"`
	ProductID         string        `mapstructure:"product_id"`
	VariantID         string        `mapstructure:"variant_id"`
	Gateway           string        `mapstructure:"gateway"`
	CheckoutURLBase   string        `mapstructure:"checkout_url_base"`
	Timeout           time.Duration `mapstructure:"timeout"`
	WebhookSecret     string        `mapstructure:"webhook_secret"`
	WebhookAllowedIPs []string      `mapstructure:"webhook_allowed_ips"`
}

// FeesConfig holds the fallback percentages used when no fee row exists.
type FeesConfig struct {
	DefaultCustomer string `mapstructure:"default_customer"`
	DefaultSeller   string `mapstructure:"default_seller"`
}

type WorkerConfig struct {
	ReconcileCron  string        `mapstructure:"reconcile_cron"`
	ReconcileAfter time.Duration `mapstructure:"reconcile_after"`
	BatchSize      int           `mapstructure:"batch_size"`
	Concurrency    int           `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: SPG_.
// Nested keys use underscore: SPG_DATABASE_HOST, SPG_PROCESSOR_TOKEN, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "seller_gateway")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("admin.secret_hash", "")
	v.SetDefault("admin.token_secret", "")
	v.SetDefault("admin.token_ttl", "1h")
	v.SetDefault("admin.issuer", "seller-gateway")
	v.SetDefault("security.api_key_pepper", "")
	v.SetDefault("security.aes_key", "")
	v.SetDefault("processor.base_url", "https://api.sellauth.com/v1")
	v.SetDefault("processor.token", "")
	v.SetDefault("processor.shop_id", "")
	v.SetDefault("processor.product_id", "")
	v.SetDefault("processor.variant_id", "")
	v.SetDefault("processor.gateway", "NMI")
	v.SetDefault("processor.checkout_url_base", "https://checkout.sellauth.com/invoice")
	v.SetDefault("processor.timeout", "10s")
	v.SetDefault("processor.webhook_secret", "")
	v.SetDefault("processor.webhook_allowed_ips", []string{})
	v.SetDefault("fees.default_customer", "15")
	v.SetDefault("fees.default_seller", "10")
	v.SetDefault("worker.reconcile_cron", "*/15 * * * *")
	v.SetDefault("worker.reconcile_after", "1h")
	v.SetDefault("worker.batch_size", 100)
	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: SPG_DATABASE_HOST -> database.host
	v.SetEnvPrefix("SPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}
