package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Webhook  WebhookConfig
	Loyalty  LoyaltyConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
	Issuer       string
}

// WebhookConfig guards the inbound order-management and customer-directory events.
// An empty secret disables signature verification (development only).
type WebhookConfig struct {
	Secret string
}

// LoyaltyConfig holds the business-configurable program parameters. Values here are
// defaults; system_settings rows can override them at runtime.
type LoyaltyConfig struct {
	// AccrualRate is points awarded per currency unit paid, e.g. 0.1 = 1 point per 10 units.
	AccrualRate float64
	// QualifyingBasis selects the input to tier resolution: "lifetime" or "balance".
	QualifyingBasis     string
	ReferrerBonusPoints int64
	ReferredBonusPoints int64
	// MaxTxRetries bounds optimistic-concurrency retries before surfacing a conflict.
	MaxTxRetries int
}

type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8090"),
			Env:          getenv("ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "loyalty:loyalty@tcp(localhost:3306)/loyalty?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: 12 * time.Hour,
			Issuer:       "loyalty",
		},
		Webhook: WebhookConfig{
			Secret: getenv("WEBHOOK_SECRET", ""),
		},
		Loyalty: LoyaltyConfig{
			AccrualRate:         getenvFloat("ACCRUAL_RATE", 0.1),
			QualifyingBasis:     getenv("QUALIFYING_BASIS", "lifetime"),
			ReferrerBonusPoints: 200,
			ReferredBonusPoints: 100,
			MaxTxRetries:        3,
		},
		Admin: AdminConfig{
			Email:    getenv("ADMIN_EMAIL", "admin@loyalty.local"),
			Password: getenv("ADMIN_PASSWORD", "change-me"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
