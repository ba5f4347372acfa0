// Package credential defines persisted OAuth material for a connected provider.
package credential

import "time"

// Credential holds the OAuth token material for one (user, provider) pair.
// At most one live credential exists per pair; Upsert replaces in place.
// AccessToken and RefreshToken are stored encrypted at rest and are only
// decrypted inside the token manager.
type Credential struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"` // empty for providers that issue none
	ExpiresAt    time.Time `json:"expires_at"`
	BaseURL      string    `json:"base_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the access token expires within the given margin.
func (c *Credential) Expired(margin time.Duration) bool {
	return time.Now().Add(margin).After(c.ExpiresAt)
}

// Public is the redacted view returned by the API: which providers are
// connected and until when, never the tokens themselves.
type Public struct {
	Provider  string    `json:"provider"`
	ExpiresAt time.Time `json:"expires_at"`
	BaseURL   string    `json:"base_url,omitempty"`
}

// Redact converts a Credential to its public view.
func (c *Credential) Redact() Public {
	return Public{Provider: c.Provider, ExpiresAt: c.ExpiresAt, BaseURL: c.BaseURL}
}
