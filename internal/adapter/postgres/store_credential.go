package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brixworks/sitesync/internal/domain"
	"github.com/brixworks/sitesync/internal/domain/credential"
)

const credentialColumns = `id, user_id, provider, access_token, refresh_token, expires_at, base_url, created_at, updated_at`

func (s *Store) GetCredential(ctx context.Context, userID, provider string) (*credential.Credential, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 AND provider = $2`,
		userID, provider)

	var c credential.Credential
	err := row.Scan(&c.ID, &c.UserID, &c.Provider, &c.AccessToken, &c.RefreshToken,
		&c.ExpiresAt, &c.BaseURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, fmt.Sprintf("get credential %s/%s", userID, provider))
	}
	return &c, nil
}

func (s *Store) ListCredentials(ctx context.Context, userID string) ([]credential.Credential, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 ORDER BY provider ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []credential.Credential
	for rows.Next() {
		var c credential.Credential
		if err := rows.Scan(&c.ID, &c.UserID, &c.Provider, &c.AccessToken, &c.RefreshToken,
			&c.ExpiresAt, &c.BaseURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// UpsertCredential inserts or replaces the single live credential for a
// (user, provider) pair. Token refreshes and reconnects both land here.
func (s *Store) UpsertCredential(ctx context.Context, c *credential.Credential) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO credentials (id, user_id, provider, access_token, refresh_token, expires_at, base_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			base_url = EXCLUDED.base_url,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.Provider, c.AccessToken, c.RefreshToken, c.ExpiresAt, c.BaseURL, now,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context, userID, provider string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM credentials WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return fmt.Errorf("delete credential %s/%s: %w", userID, provider, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete credential %s/%s: %w", userID, provider, domain.ErrNotFound)
	}
	return nil
}
