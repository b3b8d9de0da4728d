package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"github.com/oselz/sellerdash/internal/logger"
	"github.com/oselz/sellerdash/internal/provider"
)

// RenewalLoop keeps credentials warm independently of inbound traffic. Two
// cadences run: a frequent health tick that only inspects and logs state, and
// a proactive renewal tick scheduled well inside the typical token lifetime
// so foreground requests rarely hit the slow refresh path.
type RenewalLoop struct {
	manager        *Manager
	cron           *cron.Cron
	healthEvery    time.Duration
	renewEvery     time.Duration
	renewalTimeout time.Duration
}

// NewRenewalLoop creates the loop. healthEvery is the status-check cadence,
// renewEvery the proactive refresh cadence (e.g. 55m for 60-minute tokens).
func NewRenewalLoop(manager *Manager, healthEvery, renewEvery time.Duration) *RenewalLoop {
	return &RenewalLoop{
		manager:        manager,
		cron:           cron.New(),
		healthEvery:    healthEvery,
		renewEvery:     renewEvery,
		renewalTimeout: 5 * time.Minute,
	}
}

// Start schedules both cadences and starts the loop's own goroutine. The
// loop's timers are independent of any request lifecycle.
func (l *RenewalLoop) Start() error {
	if _, err := l.cron.AddFunc("@every "+l.healthEvery.String(), l.healthTick); err != nil {
		return err
	}
	if _, err := l.cron.AddFunc("@every "+l.renewEvery.String(), l.renewTick); err != nil {
		return err
	}

	logger.Get().Info().
		Dur("health_every", l.healthEvery).
		Dur("renew_every", l.renewEvery).
		Msg("Starting credential renewal loop")

	l.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for a running tick to finish.
func (l *RenewalLoop) Stop() {
	<-l.cron.Stop().Done()
}

// healthTick logs the credential state of every integration.
func (l *RenewalLoop) healthTick() {
	for _, integration := range l.manager.Integrations() {
		status := l.manager.StatusOf(integration)
		event := logger.Get().Debug().
			Str("integration", integration).
			Bool("has_credentials", status.HasCredentials).
			Bool("has_refresh_token", status.HasRefreshToken)
		if status.HasCredentials {
			event = event.Bool("expired", status.Expired).Time("expires_at", status.ExpiresAt)
		}
		event.Msg("Credential health check")

		if status.Expired {
			logger.Get().Warn().
				Str("integration", integration).
				Msg("Credential is expired or missing; next renewal tick will refresh")
		}
	}
}

// renewTick proactively refreshes every integration. Transient provider
// failures are retried with exponential backoff inside the tick; invalid
// credentials are logged and left for the operator. A failure never stops
// the schedule — the next tick retries from scratch.
func (l *RenewalLoop) renewTick() {
	for _, integration := range l.manager.Integrations() {
		l.renewOne(integration)
	}
}

func (l *RenewalLoop) renewOne(integration string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.renewalTimeout)
	defer cancel()

	operation := func() error {
		err := l.manager.Renew(ctx, integration)
		if err == nil {
			return nil
		}
		var invalid *provider.InvalidCredentialError
		if errors.As(err, &invalid) || errors.Is(err, ErrNoRefreshToken) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		logger.Get().Error().
			Str("integration", integration).
			Err(err).
			Msg("Proactive token renewal failed; will retry on next tick")
		return
	}

	logger.Get().Info().
		Str("integration", integration).
		Msg("Proactively renewed token")
}
