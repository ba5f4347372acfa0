// Package database defines the port interface for persistent storage.
package database

import (
	"context"

	"github.com/brixworks/sitesync/internal/domain/credential"
	"github.com/brixworks/sitesync/internal/domain/syncjob"
)

// Store is the port interface for the relational store backing credentials,
// sync configurations, and the crosswalk table.
type Store interface {
	// Credentials. One live row per (user, provider); upsert replaces in place.
	GetCredential(ctx context.Context, userID, provider string) (*credential.Credential, error)
	ListCredentials(ctx context.Context, userID string) ([]credential.Credential, error)
	UpsertCredential(ctx context.Context, c *credential.Credential) error
	DeleteCredential(ctx context.Context, userID, provider string) error

	// Syncs
	CreateSync(ctx context.Context, s *syncjob.Sync) (*syncjob.Sync, error)
	GetSync(ctx context.Context, id string) (*syncjob.Sync, error)
	ListSyncs(ctx context.Context, userID string) ([]syncjob.Sync, error)
	UpdateSyncStatus(ctx context.Context, id string, status syncjob.Status) error
	RecordSyncRun(ctx context.Context, id string, outcome syncjob.RunStatus) error
	DeleteSync(ctx context.Context, id string) error

	// Crosswalk. Unique on (sync_id, source_record_id).
	GetCrosswalk(ctx context.Context, syncID, sourceRecordID string) (*syncjob.CrosswalkEntry, error)
	ListCrosswalk(ctx context.Context, syncID string) ([]syncjob.CrosswalkEntry, error)
	UpsertCrosswalk(ctx context.Context, e *syncjob.CrosswalkEntry) error
}
