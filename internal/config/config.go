package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all site configuration loaded from environment variables.
type Config struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	APIBaseURL     string        `env:"API_BASE_URL" envDefault:"http://localhost:3000"`
	SiteHost       string        `env:"SITE_HOST" envDefault:"localhost"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:8080"`
	ProbeTimeout   time.Duration `env:"PROBE_TIMEOUT" envDefault:"2s"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"site.db"`
	StorePrefix  string `env:"STORE_PREFIX" envDefault:"hoa:"`

	PostgresDSN    string `env:"POSTGRES_DSN"`
	MongoURI       string `env:"MONGO_URI"`
	MongoDB        string `env:"MONGO_DB" envDefault:"hoa_site"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"redis:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	MinioEndpoint  string `env:"MINIO_ENDPOINT" envDefault:"minio:9000"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"hoa-site"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	StripePublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`
	PayPalClientID       string `env:"PAYPAL_CLIENT_ID"`
	ApplePayMerchantID   string `env:"APPLE_PAY_MERCHANT_ID"`
	GooglePayMerchantID  string `env:"GOOGLE_PAY_MERCHANT_ID"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
