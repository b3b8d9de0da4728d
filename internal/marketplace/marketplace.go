// Package marketplace holds the authenticated clients for the connected
// marketplaces. Every call obtains its bearer token from the token manager;
// a 401 from the marketplace forces one refresh and one retry before the
// error is surfaced.
package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oselz/sellerdash/internal/httpx"
	"github.com/oselz/sellerdash/internal/logger"
)

// TokenSource is the slice of the token manager the clients need.
type TokenSource interface {
	ValidToken(ctx context.Context, integration string) (string, error)
	ForceRefresh(ctx context.Context, integration, staleToken string) (string, error)
}

// UpstreamError carries a non-2xx marketplace response so handlers can pass
// the status code and body through to the dashboard caller.
type UpstreamError struct {
	Status int
	Body   json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("marketplace returned status %d: %s", e.Status, string(e.Body))
}

// doAuthenticated issues the request with a valid bearer token, refreshing
// and retrying once on 401.
func doAuthenticated(ctx context.Context, client httpx.Doer, tokens TokenSource, integration string, build func(token string) (*http.Request, error)) (json.RawMessage, error) {
	token, err := tokens.ValidToken(ctx, integration)
	if err != nil {
		return nil, fmt.Errorf("unable to get %s token: %w", integration, err)
	}

	req, err := build(token)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request execution error: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()

		logger.Get().Info().
			Str("integration", integration).
			Msg("Marketplace rejected token, refreshing and retrying once")

		token, err = tokens.ForceRefresh(ctx, integration, token)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh %s token: %w", integration, err)
		}

		req, err = build(token)
		if err != nil {
			return nil, fmt.Errorf("could not recreate request: %w", err)
		}
		req = req.WithContext(ctx)

		resp, err = client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request execution error after refresh: %w", err)
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}
	return body, nil
}
