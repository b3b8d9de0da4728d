// Package config reads the process configuration once at startup. Nothing in
// here is mutated at runtime.
package config

import (
	"time"

	"github.com/oselz/sellerdash/internal/env"
)

// IntegrationConfig holds the OAuth client settings for one marketplace.
type IntegrationConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// FallbackRefreshToken is the statically configured refresh token used
	// when the persisted record has none.
	FallbackRefreshToken string
	Scope                string
}

// Enabled reports whether the integration has client credentials configured.
func (c IntegrationConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Config is the full startup configuration.
type Config struct {
	Addr string

	// DBPath selects the SQLite credential store when set; otherwise
	// credentials are kept as JSON files under CredentialsDir.
	DBPath         string
	CredentialsDir string

	// AdminKey guards the /admin endpoints when non-empty.
	AdminKey string

	HealthCheckInterval time.Duration
	RenewInterval       time.Duration

	Amazon              IntegrationConfig
	AmazonAPIURL        string
	AmazonMarketplaceID string

	Ebay       IntegrationConfig
	EbayAPIURL string
}

// FromEnv builds the configuration from the environment.
func FromEnv() *Config {
	return &Config{
		Addr:           ":" + env.GetOrDefault("PORT", "8880"),
		DBPath:         env.GetOrDefault("SELLERDASH_DB", ""),
		CredentialsDir: env.GetOrDefault("SELLERDASH_CREDENTIALS_DIR", ".sellerdash"),
		AdminKey:       env.GetOrDefault("ADMIN_KEY", ""),

		HealthCheckInterval: env.GetDuration("TOKEN_HEALTH_INTERVAL", time.Minute),
		RenewInterval:       env.GetDuration("TOKEN_RENEW_INTERVAL", 55*time.Minute),

		Amazon: IntegrationConfig{
			TokenURL:             env.GetOrDefault("AMAZON_TOKEN_URL", ""),
			ClientID:             env.GetOrDefault("AMAZON_CLIENT_ID", ""),
			ClientSecret:         env.GetOrDefault("AMAZON_CLIENT_SECRET", ""),
			FallbackRefreshToken: env.GetOrDefault("AMAZON_REFRESH_TOKEN", ""),
		},
		AmazonAPIURL:        env.GetOrDefault("AMAZON_API_URL", ""),
		AmazonMarketplaceID: env.GetOrDefault("AMAZON_MARKETPLACE_ID", "ATVPDKIKX0DER"),

		Ebay: IntegrationConfig{
			TokenURL:             env.GetOrDefault("EBAY_TOKEN_URL", ""),
			ClientID:             env.GetOrDefault("EBAY_CLIENT_ID", ""),
			ClientSecret:         env.GetOrDefault("EBAY_CLIENT_SECRET", ""),
			FallbackRefreshToken: env.GetOrDefault("EBAY_REFRESH_TOKEN", ""),
			Scope:                env.GetOrDefault("EBAY_SCOPE", ""),
		},
		EbayAPIURL: env.GetOrDefault("EBAY_API_URL", ""),
	}
}
