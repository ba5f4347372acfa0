package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	otelx "github.com/brixworks/sitesync/internal/adapter/otel"
	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/domain/credential"
	"github.com/brixworks/sitesync/internal/domain/syncerr"
	"github.com/brixworks/sitesync/internal/port/database"
	"github.com/brixworks/sitesync/internal/port/provider"
	"github.com/brixworks/sitesync/internal/secrets"
)

// TokenManager serves valid bearer tokens for provider calls, refreshing
// proactively when the stored access token is about to expire. Refreshes
// are deduplicated per (user, provider) so concurrent callers never submit
// the same refresh token twice.
type TokenManager struct {
	store     database.Store
	cipher    *secrets.Cipher
	providers config.Providers
	margin    time.Duration
	logger    *slog.Logger
	flight    singleflight.Group

	// endpointOverride redirects token refresh to a test server.
	endpointOverride string
}

// NewTokenManager creates a TokenManager.
func NewTokenManager(store database.Store, cipher *secrets.Cipher, providers config.Providers, margin time.Duration, logger *slog.Logger) *TokenManager {
	if margin <= 0 {
		margin = 5 * time.Minute
	}
	return &TokenManager{
		store:     store,
		cipher:    cipher,
		providers: providers,
		margin:    margin,
		logger:    logger,
	}
}

// Bearer returns a valid access token for the (user, provider) pair,
// refreshing it first when it expires within the configured margin.
func (m *TokenManager) Bearer(ctx context.Context, userID, providerName string) (string, error) {
	cred, err := m.store.GetCredential(ctx, userID, providerName)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	if !cred.Expired(m.margin) {
		return m.cipher.Open(cred.AccessToken)
	}

	key := userID + "/" + providerName
	_, err, _ = m.flight.Do(key, func() (any, error) {
		// Re-read inside the flight: a caller that raced in after a finished
		// refresh must not resubmit the already-consumed refresh token.
		cur, err := m.store.GetCredential(ctx, userID, providerName)
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		if !cur.Expired(m.margin) {
			return nil, nil
		}
		return nil, m.refresh(ctx, cur)
	})
	if err != nil {
		return "", err
	}

	// Re-read after the flight: a waiter must observe the token the winner
	// stored, not the stale row it loaded before blocking.
	cred, err = m.store.GetCredential(ctx, userID, providerName)
	if err != nil {
		return "", fmt.Errorf("reload credential: %w", err)
	}
	return m.cipher.Open(cred.AccessToken)
}

// Source returns a per-request token source bound to one (user, provider)
// pair, suitable for handing to a provider adapter.
func (m *TokenManager) Source(userID, providerName string) provider.TokenSource {
	return &tokenSource{mgr: m, userID: userID, provider: providerName}
}

type tokenSource struct {
	mgr      *TokenManager
	userID   string
	provider string
}

func (s *tokenSource) Bearer(ctx context.Context) (string, error) {
	return s.mgr.Bearer(ctx, s.userID, s.provider)
}

// refresh exchanges the stored refresh token for fresh token material and
// persists the result. Runs inside the singleflight group.
func (m *TokenManager) refresh(ctx context.Context, cred *credential.Credential) error {
	ctx, span := otelx.StartRefreshSpan(ctx, cred.Provider)
	defer span.End()

	refreshToken, err := m.cipher.Open(cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("decrypt refresh token: %w", err)
	}
	if refreshToken == "" {
		// Some providers never issue refresh tokens; once the access token
		// lapses the only recovery is a new user authorization.
		return syncerr.TerminalAuth(cred.Provider, fmt.Errorf("access token expired and no refresh token on file"))
	}

	app, ok := m.providers.App(cred.Provider)
	if !ok {
		return fmt.Errorf("no oauth registration for provider %q", cred.Provider)
	}

	conf := m.oauthConfig(app)
	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return classifyRefreshError(cred.Provider, err)
	}

	sealed, err := m.cipher.Seal(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	cred.AccessToken = sealed

	// Providers that rotate refresh tokens return a new one; providers that
	// do not omit the field, and the stored token stays valid.
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		sealedRefresh, err := m.cipher.Seal(tok.RefreshToken)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
		cred.RefreshToken = sealedRefresh
	}

	cred.ExpiresAt = tok.Expiry
	if cred.ExpiresAt.IsZero() {
		cred.ExpiresAt = time.Now().Add(time.Hour)
	}

	if err := m.store.UpsertCredential(ctx, cred); err != nil {
		return fmt.Errorf("store refreshed credential: %w", err)
	}

	m.logger.Info("token refreshed",
		"provider", cred.Provider,
		"user_id", cred.UserID,
		"expires_at", cred.ExpiresAt)
	return nil
}

func (m *TokenManager) oauthConfig(app config.OAuthApp) *oauth2.Config {
	tokenURL := app.TokenURL
	if m.endpointOverride != "" {
		tokenURL = m.endpointOverride
	}
	return &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  app.AuthURL,
			TokenURL: tokenURL,
		},
	}
}

// classifyRefreshError separates dead credentials from transient failures.
// An authorization-server 4xx (invalid_grant and friends) means the refresh
// token is gone for good; everything else is worth retrying.
func classifyRefreshError(providerName string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
			return syncerr.TerminalAuth(providerName, err)
		}
	}
	return syncerr.Retryable("token refresh", err)
}
