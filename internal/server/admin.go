package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/logger"
)

// putCredentialsHandler handles POST /admin/credentials/{integration} for
// seeding or replacing a credential record. This is the operator recovery
// path when a refresh token has been revoked.
func (s *Server) putCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	integration := mux.Vars(r)["integration"]

	var record credentials.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		logger.Get().Error().Err(err).Msg("Failed to decode credentials request")
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.tokens.Put(integration, &record); err != nil {
		logger.Get().Error().Str("integration", integration).Err(err).Msg("Failed to save credentials")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger.Get().Info().Str("integration", integration).Msg("Credentials replaced by operator")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "credentials saved",
	})
}

// credentialsStatusHandler handles GET /admin/credentials/{integration}/status.
// Token values never appear in the response.
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	integration := mux.Vars(r)["integration"]
	writeJSON(w, http.StatusOK, s.tokens.StatusOf(integration))
}
