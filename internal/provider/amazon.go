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

// DefaultAmazonTokenURL is the Login with Amazon token endpoint used by
// SP-API applications.
const DefaultAmazonTokenURL = "https://api.amazon.com/auth/o2/token"

// AmazonRefresher refreshes Login with Amazon tokens. Client credentials are
// embedded in the form body per the LWA convention.
type AmazonRefresher struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	client httpx.Doer
	now    func() time.Time
}

// NewAmazonRefresher creates a refresher for the Amazon SP-API integration.
func NewAmazonRefresher(client httpx.Doer, tokenURL, clientID, clientSecret string) *AmazonRefresher {
	if tokenURL == "" {
		tokenURL = DefaultAmazonTokenURL
	}
	return &AmazonRefresher{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		client:       client,
		now:          time.Now,
	}
}

// Refresh exchanges the refresh token at the LWA token endpoint.
func (a *AmazonRefresher) Refresh(ctx context.Context, refreshToken string) (*credentials.Record, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", a.ClientID)
	form.Set("client_secret", a.ClientSecret)

	req, err := http.NewRequest(http.MethodPost, a.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return exchange(ctx, a.client, req, refreshToken, a.now)
}

// Name returns the provider name for logging.
func (a *AmazonRefresher) Name() string { return "amazon" }
