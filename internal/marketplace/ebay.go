package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oselz/sellerdash/internal/httpx"
)

// DefaultEbayAPIURL is the eBay Browse API endpoint.
const DefaultEbayAPIURL = "https://api.ebay.com/buy/browse/v1"

const ebayIntegration = "ebay"

// EbayClient calls the eBay Browse API.
type EbayClient struct {
	BaseURL string

	client httpx.Doer
	tokens TokenSource
}

// NewEbayClient creates a Browse API client.
func NewEbayClient(client httpx.Doer, tokens TokenSource, baseURL string) *EbayClient {
	if baseURL == "" {
		baseURL = DefaultEbayAPIURL
	}
	return &EbayClient{
		BaseURL: baseURL,
		client:  client,
		tokens:  tokens,
	}
}

// SearchItems runs an item summary search for the given query string.
func (e *EbayClient) SearchItems(ctx context.Context, q string, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("q", q)
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}

	endpoint := fmt.Sprintf("%s/item_summary/search?%s", e.BaseURL, query.Encode())
	return doAuthenticated(ctx, e.client, e.tokens, ebayIntegration, func(token string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}
