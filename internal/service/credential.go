package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/domain/credential"
	"github.com/brixworks/sitesync/internal/domain/syncerr"
	"github.com/brixworks/sitesync/internal/port/database"
	"github.com/brixworks/sitesync/internal/secrets"
)

// CredentialService completes the OAuth handshake and manages stored
// provider connections.
type CredentialService struct {
	store     database.Store
	cipher    *secrets.Cipher
	providers config.Providers
	logger    *slog.Logger

	// endpointOverride redirects the code exchange to a test server.
	endpointOverride string
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(store database.Store, cipher *secrets.Cipher, providers config.Providers, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		store:     store,
		cipher:    cipher,
		providers: providers,
		logger:    logger,
	}
}

// Connect exchanges an authorization code for tokens and stores them,
// replacing any previous credential for the (user, provider) pair.
func (s *CredentialService) Connect(ctx context.Context, userID, providerName, code, redirectURI string) (*credential.Credential, error) {
	app, ok := s.providers.App(providerName)
	if !ok {
		return nil, syncerr.Validation("unknown provider %q", providerName)
	}

	tokenURL := app.TokenURL
	if s.endpointOverride != "" {
		tokenURL = s.endpointOverride
	}
	conf := &oauth2.Config{
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  app.AuthURL,
			TokenURL: tokenURL,
		},
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, classifyRefreshError(providerName, err)
	}

	sealed, err := s.cipher.Seal(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	sealedRefresh, err := s.cipher.Seal(tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(time.Hour)
	}

	cred := &credential.Credential{
		UserID:       userID,
		Provider:     providerName,
		AccessToken:  sealed,
		RefreshToken: sealedRefresh,
		ExpiresAt:    expiry,
		BaseURL:      app.BaseURL,
	}
	if err := s.store.UpsertCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("provider connected",
		"provider", providerName,
		"user_id", userID,
		"expires_at", cred.ExpiresAt,
		"has_refresh_token", tok.RefreshToken != "")
	return cred, nil
}

// Disconnect removes the stored credential for a provider.
func (s *CredentialService) Disconnect(ctx context.Context, userID, providerName string) error {
	if err := s.store.DeleteCredential(ctx, userID, providerName); err != nil {
		return err
	}
	s.logger.Info("provider disconnected", "provider", providerName, "user_id", userID)
	return nil
}

// List returns the user's connected providers without token material.
func (s *CredentialService) List(ctx context.Context, userID string) ([]credential.Public, error) {
	creds, err := s.store.ListCredentials(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]credential.Public, 0, len(creds))
	for i := range creds {
		out = append(out, creds[i].Redact())
	}
	return out, nil
}
