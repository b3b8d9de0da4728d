package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/httpx"
	"github.com/oselz/sellerdash/internal/marketplace"
	"github.com/oselz/sellerdash/internal/tokens"
)

// stubRefresher satisfies provider.Refresher for wiring tests that never hit
// the refresh path.
type stubRefresher struct{}

func (stubRefresher) Refresh(_ context.Context, refreshToken string) (*credentials.Record, error) {
	return &credentials.Record{
		AccessToken:  "refreshed",
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
	}, nil
}

func (stubRefresher) Name() string { return "stub" }

func newTestServer(t *testing.T, adminKey string, upstream string) (*Server, credentials.Store) {
	t.Helper()

	store := credentials.NewFileStore(t.TempDir())
	manager := tokens.NewManager(store)
	manager.Register("ebay", stubRefresher{}, "fallback")

	var ebay *marketplace.EbayClient
	if upstream != "" {
		ebay = marketplace.NewEbayClient(httpx.NewClient(), manager, upstream)
	}

	return New(manager, nil, ebay, adminKey), store
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status       string          `json:"status"`
		Integrations []tokens.Status `json:"integrations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Integrations, 1)
	assert.Equal(t, "ebay", body.Integrations[0].Integration)
}

func TestAdminRequiresKey(t *testing.T) {
	srv, _ := newTestServer(t, "secret-key", "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/credentials/ebay/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials/ebay/status", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutAndStatusRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	payload := `{"access_token":"seeded","refresh_token":"seed-refresh","expires_at":` +
		jsonInt(time.Now().Add(time.Hour).Unix()) + `}`
	req := httptest.NewRequest(http.MethodPost, "/admin/credentials/ebay", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/credentials/ebay/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status tokens.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.HasCredentials)
	assert.True(t, status.HasRefreshToken)
	assert.False(t, status.Expired)
	// The status endpoint must never expose token values.
	assert.NotContains(t, rec.Body.String(), "seeded")
	assert.NotContains(t, rec.Body.String(), "seed-refresh")
}

func TestPutRejectsEmptyRecord(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	req := httptest.NewRequest(http.MethodPost, "/admin/credentials/ebay", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPutRejectsUnknownIntegration(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	req := httptest.NewRequest(http.MethodPost, "/admin/credentials/walmart", strings.NewReader(`{"access_token":"t"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEbaySearchRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t, "", "http://localhost:0")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ebay/search", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestEbaySearchPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"itemSummaries":[{"itemId":"1"}]}`))
	}))
	defer upstream.Close()

	srv, store := newTestServer(t, "", upstream.URL)
	require.NoError(t, store.Save("ebay", &credentials.Record{
		AccessToken: "valid",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ebay/search?q=lego", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"itemSummaries":[{"itemId":"1"}]}`, rec.Body.String())
}

func TestEbaySearchUpstreamErrorEnvelope(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"errorId":1100}]}`))
	}))
	defer upstream.Close()

	srv, store := newTestServer(t, "", upstream.URL)
	require.NoError(t, store.Save("ebay", &credentials.Record{
		AccessToken: "valid",
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ebay/search?q=lego", nil))

	// Upstream status passes through inside an error envelope.
	require.Equal(t, http.StatusForbidden, rec.Code)
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope, "error")
}

func TestUnconfiguredIntegrationReturns501(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/amazon/inventory", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, "", "")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
