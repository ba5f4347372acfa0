package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brixworks/sitesync/internal/domain"
	"github.com/brixworks/sitesync/internal/domain/syncjob"
)

const syncColumns = `id, user_id, name, source_provider, source_project_id, source_project_name,
	dest_provider, dest_project_id, dest_project_name, dest_company_id,
	data_types, mappings, status, last_run_at, last_run_status, created_at, updated_at`

func (s *Store) CreateSync(ctx context.Context, sy *syncjob.Sync) (*syncjob.Sync, error) {
	if sy.ID == "" {
		sy.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sy.CreatedAt = now
	sy.UpdatedAt = now
	sy.Status = syncjob.StatusDraft

	mappings, err := json.Marshal(sy.Mappings)
	if err != nil {
		return nil, fmt.Errorf("marshal mappings: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO syncs (id, user_id, name, source_provider, source_project_id, source_project_name,
			dest_provider, dest_project_id, dest_project_name, dest_company_id,
			data_types, mappings, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		sy.ID, sy.UserID, sy.Name, sy.SourceProvider, sy.SourceProjectID, sy.SourceProjectName,
		sy.DestProvider, sy.DestProjectID, sy.DestProjectName, sy.DestCompanyID,
		pgTextArray(sy.DataTypes), mappings, sy.Status, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create sync: %w", err)
	}
	return sy, nil
}

func (s *Store) GetSync(ctx context.Context, id string) (*syncjob.Sync, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+syncColumns+` FROM syncs WHERE id = $1`, id)

	sy, err := scanSync(row)
	if err != nil {
		return nil, notFoundWrap(err, fmt.Sprintf("get sync %s", id))
	}
	return sy, nil
}

func (s *Store) ListSyncs(ctx context.Context, userID string) ([]syncjob.Sync, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+syncColumns+` FROM syncs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list syncs: %w", err)
	}
	defer rows.Close()

	var syncs []syncjob.Sync
	for rows.Next() {
		sy, err := scanSync(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync: %w", err)
		}
		syncs = append(syncs, *sy)
	}
	return syncs, rows.Err()
}

func (s *Store) UpdateSyncStatus(ctx context.Context, id string, status syncjob.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE syncs SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update sync status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sync status %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RecordSyncRun stamps last_run_at and the collapsed run outcome. It runs
// after every execution regardless of outcome.
func (s *Store) RecordSyncRun(ctx context.Context, id string, outcome syncjob.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE syncs SET last_run_at = $2, last_run_status = $3, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC(), outcome)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record sync run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteSync(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM syncs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sync %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete sync %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

func scanSync(row scannable) (*syncjob.Sync, error) {
	var (
		sy            syncjob.Sync
		mappings      []byte
		lastRunStatus *string
	)
	err := row.Scan(&sy.ID, &sy.UserID, &sy.Name, &sy.SourceProvider, &sy.SourceProjectID, &sy.SourceProjectName,
		&sy.DestProvider, &sy.DestProjectID, &sy.DestProjectName, &sy.DestCompanyID,
		&sy.DataTypes, &mappings, &sy.Status, &sy.LastRunAt, &lastRunStatus, &sy.CreatedAt, &sy.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(mappings) > 0 {
		if err := json.Unmarshal(mappings, &sy.Mappings); err != nil {
			return nil, fmt.Errorf("unmarshal mappings: %w", err)
		}
	}
	if lastRunStatus != nil {
		sy.LastRunStatus = syncjob.RunStatus(*lastRunStatus)
	}
	return &sy, nil
}
