package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/httpx"
)

// DefaultEbayTokenURL is the eBay identity token endpoint.
const DefaultEbayTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"

// EbayRefresher refreshes eBay user tokens. Client credentials travel as
// HTTP Basic auth per the eBay convention; the form body carries only the
// grant and optional scopes.
type EbayRefresher struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string

	client httpx.Doer
	now    func() time.Time
}

// NewEbayRefresher creates a refresher for the eBay integration.
func NewEbayRefresher(client httpx.Doer, tokenURL, clientID, clientSecret, scope string) *EbayRefresher {
	if tokenURL == "" {
		tokenURL = DefaultEbayTokenURL
	}
	return &EbayRefresher{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        scope,
		client:       client,
		now:          time.Now,
	}
}

// Refresh exchanges the refresh token at the eBay token endpoint.
func (e *EbayRefresher) Refresh(ctx context.Context, refreshToken string) (*credentials.Record, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	if e.Scope != "" {
		form.Set("scope", e.Scope)
	}

	req, err := http.NewRequest(http.MethodPost, e.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(e.ClientID, e.ClientSecret)

	return exchange(ctx, e.client, req, refreshToken, e.now)
}

// Name returns the provider name for logging.
func (e *EbayRefresher) Name() string { return "ebay" }
