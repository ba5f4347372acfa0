// Package syncjob defines the Sync configuration entity, its field mapping
// document, and the crosswalk table that makes re-runs idempotent.
package syncjob

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a Sync configuration.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// RunStatus summarizes the outcome of the most recent run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunError   RunStatus = "error"
)

// DataTypeIssues is the only data type currently synced.
const DataTypeIssues = "issues"

// FieldMapping pairs a source field name with a destination field name.
type FieldMapping struct {
	SourceField string `json:"source_field"`
	DestField   string `json:"dest_field"`
}

// MappingDoc is the per-data-type field mapping document nested under a Sync.
type MappingDoc map[string][]FieldMapping

// Sync is a named, user-owned transfer configuration between two providers.
type Sync struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	SourceProvider    string     `json:"source_provider"`
	SourceProjectID   string     `json:"source_project_id"`
	SourceProjectName string     `json:"source_project_name,omitempty"`
	DestProvider      string     `json:"dest_provider"`
	DestProjectID     string     `json:"dest_project_id"`
	DestProjectName   string     `json:"dest_project_name,omitempty"`
	DestCompanyID     string     `json:"dest_company_id,omitempty"` // tenant scoping, required by some providers
	DataTypes         []string   `json:"data_types"`
	Mappings          MappingDoc `json:"mappings"`
	Status            Status     `json:"status"`
	LastRunAt         *time.Time `json:"last_run_at,omitempty"`
	LastRunStatus     RunStatus  `json:"last_run_status,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Validate checks the structural invariants of a Sync configuration.
func (s *Sync) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sync name is required")
	}
	if s.SourceProvider == "" || s.DestProvider == "" {
		return fmt.Errorf("source and destination providers are required")
	}
	if s.SourceProvider == s.DestProvider {
		return fmt.Errorf("source and destination providers must differ")
	}
	if s.SourceProjectID == "" || s.DestProjectID == "" {
		return fmt.Errorf("source and destination project ids are required")
	}
	return nil
}

// IssueMappings returns the field mappings for the issues data type.
func (s *Sync) IssueMappings() []FieldMapping {
	if s.Mappings == nil {
		return nil
	}
	return s.Mappings[DataTypeIssues]
}

// CrosswalkEntry records that a source record has been mirrored into a
// destination record. Unique on (SyncID, SourceRecordID); this is the
// idempotency key that prevents duplicate creation on re-run.
type CrosswalkEntry struct {
	SyncID         string    `json:"sync_id"`
	SourceRecordID string    `json:"source_record_id"`
	DestRecordID   string    `json:"dest_record_id"`
	LastSyncedAt   time.Time `json:"last_synced_at"`
}

// RecordError describes a single record that failed to transfer.
type RecordError struct {
	SourceID    string `json:"source_id"`
	SourceTitle string `json:"source_title,omitempty"`
	Message     string `json:"message"`
}

// RunResult is the transient outcome of one run, returned to the caller and
// folded into Sync.LastRunStatus.
type RunResult struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  []RecordError `json:"errors"`
}

// Status collapses the run counts into a RunStatus using one consistent
// rule: success only if zero errors, partial if anything succeeded alongside
// errors, error otherwise.
func (r *RunResult) Status() RunStatus {
	switch {
	case len(r.Errors) == 0:
		return RunSuccess
	case r.Created+r.Updated > 0:
		return RunPartial
	default:
		return RunError
	}
}
