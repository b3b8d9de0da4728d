// Package server exposes the dashboard HTTP API: marketplace passthrough
// endpoints that ride on the token manager, admin endpoints for credential
// recovery, and a health endpoint.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oselz/sellerdash/internal/logger"
	"github.com/oselz/sellerdash/internal/marketplace"
	"github.com/oselz/sellerdash/internal/tokens"
)

// Server wires the route handlers to the token manager and marketplace
// clients.
type Server struct {
	tokens   *tokens.Manager
	amazon   *marketplace.AmazonClient
	ebay     *marketplace.EbayClient
	adminKey string
	router   *mux.Router
}

// New creates the server. adminKey may be empty, in which case the admin
// endpoints are open (development only).
func New(manager *tokens.Manager, amazon *marketplace.AmazonClient, ebay *marketplace.EbayClient, adminKey string) *Server {
	s := &Server{
		tokens:   manager,
		amazon:   amazon,
		ebay:     ebay,
		adminKey: adminKey,
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(requestIDMiddleware, loggingMiddleware)

	s.router.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/amazon/inventory", s.amazonInventoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/amazon/orders", s.amazonOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/ebay/search", s.ebaySearchHandler).Methods(http.MethodGet)

	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminMiddleware)
	admin.HandleFunc("/credentials/{integration}", s.putCredentialsHandler).Methods(http.MethodPost)
	admin.HandleFunc("/credentials/{integration}/status", s.credentialsStatusHandler).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start runs the server on addr, blocking until it exits.
func (s *Server) Start(addr string) error {
	logger.Get().Info().Str("addr", addr).Msg("Starting dashboard server")
	return http.ListenAndServe(addr, s.router)
}
