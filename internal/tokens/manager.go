// Package tokens owns the lifecycle of marketplace OAuth tokens: deciding
// when a stored token is still good, serializing concurrent refreshes, and
// writing the result back to the credential store. The Manager is the only
// writer of credential records in the process.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/oselz/sellerdash/internal/credentials"
	"github.com/oselz/sellerdash/internal/logger"
	"github.com/oselz/sellerdash/internal/provider"
)

// ErrUnknownIntegration is returned when no refresher is registered for the
// requested integration name.
var ErrUnknownIntegration = errors.New("tokens: unknown integration")

// ErrNoRefreshToken is returned when neither the stored record nor the
// configured fallback supplies a refresh token.
var ErrNoRefreshToken = errors.New("tokens: no refresh token available")

type registration struct {
	refresher provider.Refresher
	// fallback is the statically configured refresh token used when the
	// stored record has none.
	fallback string
}

// Manager hands out currently-valid access tokens, refreshing through the
// registered provider when needed. Concurrent refreshes of the same
// integration collapse into a single provider call whose result every waiter
// shares.
type Manager struct {
	store          credentials.Store
	registrations  map[string]registration
	group          singleflight.Group
	refreshTimeout time.Duration
	now            func() time.Time
}

// NewManager creates a Manager on top of the given store.
func NewManager(store credentials.Store) *Manager {
	return &Manager{
		store:          store,
		registrations:  make(map[string]registration),
		refreshTimeout: 45 * time.Second,
		now:            time.Now,
	}
}

// Register wires an integration name to its refresher and optional static
// fallback refresh token. Must be called before serving; registrations are
// not safe to mutate concurrently with token requests.
func (m *Manager) Register(integration string, r provider.Refresher, fallbackRefreshToken string) {
	m.registrations[integration] = registration{refresher: r, fallback: fallbackRefreshToken}
}

// Integrations returns the registered integration names.
func (m *Manager) Integrations() []string {
	names := make([]string, 0, len(m.registrations))
	for name := range m.registrations {
		names = append(names, name)
	}
	return names
}

// ValidToken returns an access token for integration that is valid right now.
// The common path is a store read with no network traffic; only an expired or
// missing record triggers a refresh.
func (m *Manager) ValidToken(ctx context.Context, integration string) (string, error) {
	if _, ok := m.registrations[integration]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownIntegration, integration)
	}

	record, err := m.store.Load(integration)
	if err == nil && record.Valid(m.now()) {
		return record.AccessToken, nil
	}
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		return "", err
	}

	return m.refresh(ctx, integration, "")
}

// ForceRefresh is the recovery path for an upstream 401: the caller passes
// the token that was just rejected. If another refresh already replaced it,
// the replacement is returned without a second provider call; otherwise a
// refresh is performed.
func (m *Manager) ForceRefresh(ctx context.Context, integration, staleToken string) (string, error) {
	if _, ok := m.registrations[integration]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownIntegration, integration)
	}
	return m.refresh(ctx, integration, staleToken)
}

// Renew unconditionally refreshes the credential, still under the
// single-flight guard. Used by the background renewal loop to stay ahead of
// expiry.
func (m *Manager) Renew(ctx context.Context, integration string) error {
	if _, ok := m.registrations[integration]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIntegration, integration)
	}
	_, err := m.renewFlight(ctx, integration)
	return err
}

// refresh runs the load-check-refresh-save sequence as one single-flight unit
// per integration. Callers that arrive while a refresh is in flight wait for
// that flight's result instead of starting their own. staleToken, when set,
// marks a token the caller knows to be rejected: a stored token equal to it
// is not trusted even if its expiry is in the future.
func (m *Manager) refresh(ctx context.Context, integration, staleToken string) (string, error) {
	ch := m.group.DoChan(integration, func() (interface{}, error) {
		// Re-check under the flight: a refresh that completed while this
		// caller was waiting to enter already did the work.
		record, err := m.store.Load(integration)
		if err == nil && record.Valid(m.now()) && record.AccessToken != staleToken {
			return record.AccessToken, nil
		}
		if err != nil && !errors.Is(err, credentials.ErrNotFound) {
			return nil, err
		}
		return m.doRefresh(integration, record)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// renewFlight is refresh without the validity short-circuit.
func (m *Manager) renewFlight(ctx context.Context, integration string) (string, error) {
	ch := m.group.DoChan(integration, func() (interface{}, error) {
		record, err := m.store.Load(integration)
		if err != nil && !errors.Is(err, credentials.ErrNotFound) {
			return nil, err
		}
		return m.doRefresh(integration, record)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh performs the provider exchange and persists the result. It runs
// on a detached bounded context so a refresh shared by many waiters is not
// torn down when the first waiter's request is cancelled. On any error the
// store is left untouched.
func (m *Manager) doRefresh(integration string, current *credentials.Record) (interface{}, error) {
	reg := m.registrations[integration]

	refreshToken := ""
	if current != nil {
		refreshToken = current.RefreshToken
	}
	if refreshToken == "" {
		refreshToken = reg.fallback
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w for %s", ErrNoRefreshToken, integration)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()

	record, err := reg.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing %s token: %w", integration, err)
	}

	if err := m.store.Save(integration, record); err != nil {
		return nil, fmt.Errorf("persisting %s credentials: %w", integration, err)
	}

	logger.Get().Info().
		Str("integration", integration).
		Time("expires_at", record.Expiry()).
		Msg("Refreshed OAuth token")

	return record.AccessToken, nil
}

// Status describes the stored credential for health reporting. Token values
// are never included.
type Status struct {
	Integration     string    `json:"integration"`
	HasCredentials  bool      `json:"has_credentials"`
	HasRefreshToken bool      `json:"has_refresh_token"`
	Expired         bool      `json:"expired"`
	ExpiresAt       time.Time `json:"expires_at,omitempty"`
}

// StatusOf reports the current credential state for an integration.
func (m *Manager) StatusOf(integration string) Status {
	status := Status{Integration: integration}

	record, err := m.store.Load(integration)
	if err != nil {
		return status
	}

	status.HasCredentials = record.AccessToken != ""
	status.HasRefreshToken = record.RefreshToken != ""
	status.Expired = !record.Valid(m.now())
	status.ExpiresAt = record.Expiry()
	return status
}

// Put validates and stores an operator-supplied record, replacing whatever is
// persisted. This is the recovery path for a revoked refresh token.
func (m *Manager) Put(integration string, record *credentials.Record) error {
	if _, ok := m.registrations[integration]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIntegration, integration)
	}
	if record.AccessToken == "" && record.RefreshToken == "" {
		return errors.New("tokens: record must carry an access token or a refresh token")
	}
	return m.store.Save(integration, record)
}
