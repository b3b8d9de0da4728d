package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/oselz/sellerdash/internal/logger"
	"github.com/oselz/sellerdash/internal/marketplace"
	"github.com/oselz/sellerdash/internal/provider"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

// writeMarketplaceError maps an error from the marketplace path onto the
// response: upstream statuses pass through with the upstream body, token
// endpoint rejections keep the provider's status, everything else is a 500.
func writeMarketplaceError(w http.ResponseWriter, err error) {
	var upstream *marketplace.UpstreamError
	if errors.As(err, &upstream) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstream.Status)
		body, _ := json.Marshal(map[string]interface{}{"error": json.RawMessage(upstream.Body)})
		w.Write(body)
		return
	}

	var invalid *provider.InvalidCredentialError
	if errors.As(err, &invalid) {
		writeJSONError(w, invalid.Status, err.Error())
		return
	}

	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	statuses := make([]interface{}, 0)
	for _, integration := range s.tokens.Integrations() {
		statuses = append(statuses, s.tokens.StatusOf(integration))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"integrations": statuses,
	})
}

func (s *Server) amazonInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if s.amazon == nil {
		writeJSONError(w, http.StatusNotImplemented, "amazon integration is not configured")
		return
	}
	body, err := s.amazon.InventorySummaries(r.Context())
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) amazonOrdersHandler(w http.ResponseWriter, r *http.Request) {
	if s.amazon == nil {
		writeJSONError(w, http.StatusNotImplemented, "amazon integration is not configured")
		return
	}

	createdAfter := r.URL.Query().Get("created_after")
	if createdAfter == "" {
		createdAfter = time.Now().AddDate(0, 0, -30).UTC().Format(time.RFC3339)
	}

	body, err := s.amazon.Orders(r.Context(), createdAfter)
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (s *Server) ebaySearchHandler(w http.ResponseWriter, r *http.Request) {
	if s.ebay == nil {
		writeJSONError(w, http.StatusNotImplemented, "ebay integration is not configured")
		return
	}

	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSONError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSONError(w, http.StatusBadRequest, "query parameter 'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	body, err := s.ebay.SearchItems(r.Context(), q, limit)
	if err != nil {
		writeMarketplaceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
