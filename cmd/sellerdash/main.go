package main

import (
	"github.com/joho/godotenv"

	"github.com/oselz/sellerdash/internal/config"
	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/httpx"
	"github.com/oselz/sellerdash/internal/logger"
	"github.com/oselz/sellerdash/internal/marketplace"
	"github.com/oselz/sellerdash/internal/provider"
	"github.com/oselz/sellerdash/internal/server"
	"github.com/oselz/sellerdash/internal/tokens"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.FromEnv()

	store, cleanup, err := newStore(cfg)
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer cleanup()

	httpClient := httpx.NewClient()
	manager := tokens.NewManager(store)

	var amazonClient *marketplace.AmazonClient
	if cfg.Amazon.Enabled() {
		refresher := provider.NewAmazonRefresher(httpClient, cfg.Amazon.TokenURL, cfg.Amazon.ClientID, cfg.Amazon.ClientSecret)
		manager.Register("amazon", refresher, cfg.Amazon.FallbackRefreshToken)
		amazonClient = marketplace.NewAmazonClient(httpClient, manager, cfg.AmazonAPIURL, cfg.AmazonMarketplaceID)
		logger.Get().Info().Msg("Amazon integration enabled")
	}

	var ebayClient *marketplace.EbayClient
	if cfg.Ebay.Enabled() {
		refresher := provider.NewEbayRefresher(httpClient, cfg.Ebay.TokenURL, cfg.Ebay.ClientID, cfg.Ebay.ClientSecret, cfg.Ebay.Scope)
		manager.Register("ebay", refresher, cfg.Ebay.FallbackRefreshToken)
		ebayClient = marketplace.NewEbayClient(httpClient, manager, cfg.EbayAPIURL)
		logger.Get().Info().Msg("eBay integration enabled")
	}

	if amazonClient == nil && ebayClient == nil {
		logger.Get().Warn().Msg("No marketplace integrations configured; only admin endpoints will be useful")
	}

	renewal := tokens.NewRenewalLoop(manager, cfg.HealthCheckInterval, cfg.RenewInterval)
	if err := renewal.Start(); err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to start renewal loop")
	}
	defer renewal.Stop()

	srv := server.New(manager, amazonClient, ebayClient, cfg.AdminKey)
	if err := srv.Start(cfg.Addr); err != nil {
		logger.Get().Fatal().Err(err).Msg("Failed to start server")
	}
}

// newStore selects SQLite when a database path is configured, JSON files
// otherwise.
func newStore(cfg *config.Config) (credentials.Store, func(), error) {
	if cfg.DBPath != "" {
		store, err := credentials.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Get().Info().Str("path", cfg.DBPath).Msg("Using SQLite credential store")
		return store, func() { store.Close() }, nil
	}

	logger.Get().Info().Str("dir", cfg.CredentialsDir).Msg("Using file credential store")
	return credentials.NewFileStore(cfg.CredentialsDir), func() {}, nil
}
