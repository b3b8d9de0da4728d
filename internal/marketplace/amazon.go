package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/oselz/sellerdash/internal/httpx"
)

// DefaultAmazonAPIURL is the North America SP-API endpoint.
const DefaultAmazonAPIURL = "https://sellingpartnerapi-na.amazon.com"

const amazonIntegration = "amazon"

// AmazonClient calls the Amazon Selling Partner API.
type AmazonClient struct {
	BaseURL       string
	MarketplaceID string

	client httpx.Doer
	tokens TokenSource
}

// NewAmazonClient creates an SP-API client for the given marketplace.
func NewAmazonClient(client httpx.Doer, tokens TokenSource, baseURL, marketplaceID string) *AmazonClient {
	if baseURL == "" {
		baseURL = DefaultAmazonAPIURL
	}
	return &AmazonClient{
		BaseURL:       baseURL,
		MarketplaceID: marketplaceID,
		client:        client,
		tokens:        tokens,
	}
}

// InventorySummaries fetches FBA inventory summaries for the marketplace.
func (a *AmazonClient) InventorySummaries(ctx context.Context) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("granularityType", "Marketplace")
	query.Set("granularityId", a.MarketplaceID)
	query.Set("marketplaceIds", a.MarketplaceID)

	endpoint := fmt.Sprintf("%s/fba/inventory/v1/summaries?%s", a.BaseURL, query.Encode())
	return a.get(ctx, endpoint)
}

// Orders fetches orders created after the given ISO-8601 timestamp.
func (a *AmazonClient) Orders(ctx context.Context, createdAfter string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("MarketplaceIds", a.MarketplaceID)
	query.Set("CreatedAfter", createdAfter)

	endpoint := fmt.Sprintf("%s/orders/v0/orders?%s", a.BaseURL, query.Encode())
	return a.get(ctx, endpoint)
}

func (a *AmazonClient) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return doAuthenticated(ctx, a.client, a.tokens, amazonIntegration, func(token string) (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		// SP-API expects the LWA token in x-amz-access-token.
		req.Header.Set("x-amz-access-token", token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
}
