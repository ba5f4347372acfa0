package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/brixworks/sitesync/internal/domain/syncjob"
)

func (s *Store) GetCrosswalk(ctx context.Context, syncID, sourceRecordID string) (*syncjob.CrosswalkEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT sync_id, source_record_id, dest_record_id, last_synced_at
		FROM crosswalk_entries WHERE sync_id = $1 AND source_record_id = $2`,
		syncID, sourceRecordID)

	var e syncjob.CrosswalkEntry
	err := row.Scan(&e.SyncID, &e.SourceRecordID, &e.DestRecordID, &e.LastSyncedAt)
	if err != nil {
		return nil, notFoundWrap(err, fmt.Sprintf("get crosswalk %s/%s", syncID, sourceRecordID))
	}
	return &e, nil
}

func (s *Store) ListCrosswalk(ctx context.Context, syncID string) ([]syncjob.CrosswalkEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sync_id, source_record_id, dest_record_id, last_synced_at
		FROM crosswalk_entries WHERE sync_id = $1`, syncID)
	if err != nil {
		return nil, fmt.Errorf("list crosswalk: %w", err)
	}
	defer rows.Close()

	var entries []syncjob.CrosswalkEntry
	for rows.Next() {
		var e syncjob.CrosswalkEntry
		if err := rows.Scan(&e.SyncID, &e.SourceRecordID, &e.DestRecordID, &e.LastSyncedAt); err != nil {
			return nil, fmt.Errorf("scan crosswalk entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpsertCrosswalk records that a source record has a counterpart in the
// destination. Re-syncing the same record refreshes last_synced_at and,
// if the destination record was recreated, the new destination id.
func (s *Store) UpsertCrosswalk(ctx context.Context, e *syncjob.CrosswalkEntry) error {
	if e.LastSyncedAt.IsZero() {
		e.LastSyncedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO crosswalk_entries (sync_id, source_record_id, dest_record_id, last_synced_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sync_id, source_record_id) DO UPDATE SET
			dest_record_id = EXCLUDED.dest_record_id,
			last_synced_at = EXCLUDED.last_synced_at`,
		e.SyncID, e.SourceRecordID, e.DestRecordID, e.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert crosswalk: %w", err)
	}
	return nil
}
