package config

import (
	"fmt"
	"os"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// PricePlan is one entry of the fixed price-id lookup table: a Stripe price
// identifier resolves to exactly one (plan, period) pair.
type PricePlan struct {
	Plan   models.Plan
	Period models.BillingPeriod
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// PriceTable maps provider price identifiers to plans. Identifiers are
	// opaque strings configured via environment, never interpreted.
	PriceTable map[string]PricePlan
}

type Config struct {
	Repositories RepositoriesConfig
	Stripe       StripeConfig
	JWTSecretKey string
	ServerPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "hanapbahay"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceTable:    loadPriceTable(),
		},
		JWTSecretKey: getEnvOrDefault("JWT_SECRET_KEY", ""),
		ServerPort:   getEnvOrDefault("SERVER_PORT", "8080"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	return cfg, nil
}

func loadPriceTable() map[string]PricePlan {
	table := make(map[string]PricePlan)
	entries := []struct {
		env    string
		plan   models.Plan
		period models.BillingPeriod
	}{
		{"STRIPE_PRICE_PREMIUM_QUARTERLY", models.PlanPremium, models.PeriodQuarterly},
		{"STRIPE_PRICE_PREMIUM_YEARLY", models.PlanPremium, models.PeriodYearly},
		{"STRIPE_PRICE_BUSINESS_QUARTERLY", models.PlanBusiness, models.PeriodQuarterly},
		{"STRIPE_PRICE_BUSINESS_YEARLY", models.PlanBusiness, models.PeriodYearly},
	}
	for _, e := range entries {
		if priceID := os.Getenv(e.env); priceID != "" {
			table[priceID] = PricePlan{Plan: e.plan, Period: e.period}
		}
	}
	return table
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
