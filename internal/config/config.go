package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	AppURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	// Shopify app credentials. The API secret signs session tokens and webhook
	// payloads; the API key is the session token audience.
	ShopifyAPIKey    string `env:"SHOPIFY_API_KEY,required"`
	ShopifyAPISecret string `env:"SHOPIFY_API_SECRET,required"`

	// AppHandle is the app's handle in the Shopify admin, used to build the
	// hosted pricing-plans URL.
	AppHandle string `env:"SHOPIFY_APP_HANDLE" envDefault:"currency-converter-bgn-eur"`
	AdminHost string `env:"SHOPIFY_ADMIN_HOST" envDefault:"admin.shopify.com"`

	// Storage. When MongoURI or RedisURL is empty the process falls back to
	// in-memory stores, which lose all state on restart.
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"currency_converter"`
	RedisURL      string `env:"REDIS_URL"`

	SubscriptionCacheTTL time.Duration `env:"SUBSCRIPTION_CACHE_TTL" envDefault:"5m"`
	ExchangeTimeout      time.Duration `env:"TOKEN_EXCHANGE_TIMEOUT" envDefault:"10s"`
}

// Load parses the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
