// Package config loads service settings from the environment.
package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the API and worker read from the environment.
type Config struct {
	CatalogTable     string        `envconfig:"CATALOG_TABLE" default:"storefront-catalog"`
	OrdersTable      string        `envconfig:"ORDERS_TABLE" default:"storefront-orders"`
	IdempotencyTable string        `envconfig:"IDEMPOTENCY_TABLE" default:"storefront-idempotency"`
	StatsCacheTable  string        `envconfig:"STATS_CACHE_TABLE" default:"storefront-stats-cache"`
	OrdersQueueURL   string        `envconfig:"ORDERS_QUEUE_URL"`
	IdempotencyTTL   time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"48h"`

	Pricing PricingPolicy

	PayPalAPIBase  string `envconfig:"PAYPAL_API_BASE" default:"https://api-m.sandbox.paypal.com"`
	PayPalClientID string `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalSecret   string `envconfig:"PAYPAL_SECRET"`

	StatsAPIHost    string        `envconfig:"STATS_API_HOST" default:"wnba-api.p.rapidapi.com"`
	StatsAPIKey     string        `envconfig:"STATS_API_KEY"`
	StatsCallBudget int           `envconfig:"STATS_CALL_BUDGET" default:"100"`
	StatsCacheTTL   time.Duration `envconfig:"STATS_CACHE_TTL" default:"24h"`

	RunLocal  bool   `envconfig:"RUN_LOCAL" default:"false"`
	LocalAddr string `envconfig:"LOCAL_ADDR" default:":8080"`
}

// PricingPolicy carries the order pricing constants. The free-shipping
// threshold and tax rate are deployment configuration, never hard-coded.
type PricingPolicy struct {
	FreeShippingThreshold float64 `envconfig:"FREE_SHIPPING_THRESHOLD" default:"100"`
	ShippingFlatFee       float64 `envconfig:"SHIPPING_FLAT_FEE" default:"10"`
	TaxRate               float64 `envconfig:"TAX_RATE" default:"0.15"`
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
