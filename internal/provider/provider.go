// Package provider exchanges refresh tokens for new access tokens at the
// marketplace identity endpoints. Each marketplace has its own adapter
// because the two differ in how client credentials travel: Amazon embeds
// them in the form body, eBay sends them as HTTP Basic auth.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/httpx"
)

const (
	// ExpiryMargin is subtracted from the provider-declared TTL so a token
	// is never used right at the edge of its lifetime (clock skew, in-flight
	// request latency).
	ExpiryMargin = 60 * time.Second

	// requestTimeout bounds a single token-endpoint call.
	requestTimeout = 30 * time.Second
)

// Refresher exchanges a refresh token for a fresh credential record. It does
// not persist anything; that is the lifecycle manager's job.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*credentials.Record, error)
	Name() string
}

// TransientError wraps network failures, timeouts and 5xx responses from the
// token endpoint. Safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient token refresh failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// InvalidCredentialError means the provider rejected the refresh token or
// client credentials. Retrying with the same credential will not help.
type InvalidCredentialError struct {
	Status int
	Code   string
	Detail string
}

func (e *InvalidCredentialError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider rejected credentials (%d %s): %s", e.Status, e.Code, e.Detail)
	}
	return fmt.Sprintf("provider rejected credentials (status %d)", e.Status)
}

// tokenResponse is the JSON body both marketplaces return from their token
// endpoints.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// exchange executes a prepared token-endpoint request and normalizes the
// response into a credential record. refreshToken is carried forward when the
// provider does not rotate it.
func exchange(ctx context.Context, client httpx.Doer, req *http.Request, refreshToken string, now func() time.Time) (*credentials.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: fmt.Errorf("reading token response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &TransientError{Err: fmt.Errorf("token endpoint returned status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		var te tokenErrorResponse
		_ = json.Unmarshal(body, &te)
		return nil, &InvalidCredentialError{
			Status: resp.StatusCode,
			Code:   te.Error,
			Detail: te.ErrorDescription,
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &TransientError{Err: fmt.Errorf("could not parse token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &TransientError{Err: fmt.Errorf("token response missing access_token")}
	}

	record := &credentials.Record{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    now().Add(time.Duration(tr.ExpiresIn)*time.Second - ExpiryMargin).Unix(),
		TokenType:    tr.TokenType,
		Scope:        tr.Scope,
		Raw:          json.RawMessage(body),
	}
	if record.RefreshToken == "" {
		record.RefreshToken = refreshToken
	}
	return record, nil
}
