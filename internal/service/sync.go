package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/domain"
	"github.com/brixworks/sitesync/internal/domain/syncerr"
	"github.com/brixworks/sitesync/internal/domain/syncjob"
	"github.com/brixworks/sitesync/internal/logger"
	"github.com/brixworks/sitesync/internal/port/database"
	"github.com/brixworks/sitesync/internal/port/events"
	"github.com/brixworks/sitesync/internal/port/provider"

	otelx "github.com/brixworks/sitesync/internal/adapter/otel"
)

// backfillFields are copied from like-named source fields when no explicit
// mapping provides them. A record without a title is unusable everywhere.
var backfillFields = []string{"title", "description", "status"}

// SyncService orchestrates sync configurations and executes runs.
type SyncService struct {
	store       database.Store
	tokens      *TokenManager
	providers   config.Providers
	publisher   events.Publisher // nil disables run events
	metrics     *otelx.Metrics   // nil disables instruments
	logger      *slog.Logger
	concurrency int64
	httpTimeout time.Duration

	// newProvider builds an adapter from the registry; tests substitute fakes.
	newProvider func(name string, cfg provider.Config) (provider.Provider, error)
}

// NewSyncService creates a SyncService. publisher and metrics may be nil.
func NewSyncService(store database.Store, tokens *TokenManager, providers config.Providers, publisher events.Publisher, metrics *otelx.Metrics, cfg config.Sync, logger *slog.Logger) *SyncService {
	concurrency := int64(cfg.WriteConcurrency)
	if concurrency < 1 {
		concurrency = 4
	}
	return &SyncService{
		store:       store,
		tokens:      tokens,
		providers:   providers,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
		httpTimeout: cfg.HTTPTimeout,
		newProvider: provider.New,
	}
}

// Create validates and persists a new sync configuration in draft status.
func (s *SyncService) Create(ctx context.Context, sy *syncjob.Sync) (*syncjob.Sync, error) {
	if err := sy.Validate(); err != nil {
		return nil, syncerr.Validation("%v", err)
	}
	if len(sy.DataTypes) == 0 {
		sy.DataTypes = []string{syncjob.DataTypeIssues}
	}
	created, err := s.store.CreateSync(ctx, sy)
	if err != nil {
		return nil, fmt.Errorf("create sync: %w", err)
	}
	s.logger.Info("sync created",
		"sync_id", created.ID,
		"source", created.SourceProvider,
		"dest", created.DestProvider)
	return created, nil
}

// Get returns a sync owned by the user.
func (s *SyncService) Get(ctx context.Context, syncID, userID string) (*syncjob.Sync, error) {
	sy, err := s.store.GetSync(ctx, syncID)
	if err != nil {
		return nil, err
	}
	if sy.UserID != userID {
		// Ownership violations are indistinguishable from absence.
		return nil, fmt.Errorf("sync %s: %w", syncID, domain.ErrNotFound)
	}
	return sy, nil
}

// List returns the user's syncs.
func (s *SyncService) List(ctx context.Context, userID string) ([]syncjob.Sync, error) {
	return s.store.ListSyncs(ctx, userID)
}

// Delete removes a sync and, through the schema's cascade, its crosswalk.
func (s *SyncService) Delete(ctx context.Context, syncID, userID string) error {
	if _, err := s.Get(ctx, syncID, userID); err != nil {
		return err
	}
	return s.store.DeleteSync(ctx, syncID)
}

// Execute runs a sync once. Credentials are resolved and the title-mapping
// precondition checked before any provider is contacted; a refusal leaves
// the sync's status untouched. Re-running is idempotent through the
// crosswalk: records already mirrored are refreshed, never duplicated.
func (s *SyncService) Execute(ctx context.Context, syncID, userID string) (*syncjob.RunResult, error) {
	sy, err := s.Get(ctx, syncID, userID)
	if err != nil {
		return nil, err
	}

	ctx, span := otelx.StartRunSpan(ctx, sy.ID, sy.SourceProvider, sy.DestProvider)
	defer span.End()

	// Every log record emitted during the run carries the same run id.
	ctx = logger.WithRunID(ctx, uuid.NewString())

	// Both credentials must be usable up front. Failing here, before any
	// issue is read, means a dead destination token cannot strand a
	// half-written run.
	if _, err := s.tokens.Bearer(ctx, userID, sy.SourceProvider); err != nil {
		return nil, err
	}
	if _, err := s.tokens.Bearer(ctx, userID, sy.DestProvider); err != nil {
		return nil, err
	}

	mappings := sy.IssueMappings()
	if err := RequireTitleMapping(mappings); err != nil {
		return nil, syncerr.Validation("%v", err)
	}

	if err := s.store.UpdateSyncStatus(ctx, sy.ID, syncjob.StatusRunning); err != nil {
		return nil, err
	}
	started := time.Now()
	if s.metrics != nil {
		s.metrics.RunsStarted.Add(ctx, 1)
	}

	source, err := s.buildProvider(sy.SourceProvider, userID, "")
	if err != nil {
		return nil, s.finishRun(ctx, sy, started, nil, err)
	}
	dest, err := s.buildProvider(sy.DestProvider, userID, sy.DestCompanyID)
	if err != nil {
		return nil, s.finishRun(ctx, sy, started, nil, err)
	}

	issues, err := source.ListIssues(ctx, sy.SourceProjectID)
	if err != nil {
		return nil, s.finishRun(ctx, sy, started, nil, err)
	}

	result := &syncjob.RunResult{}
	if len(issues) == 0 {
		return result, s.finishRun(ctx, sy, started, result, nil)
	}

	var (
		mu  sync.Mutex
		sem = semaphore.NewWeighted(s.concurrency)
		wg  sync.WaitGroup
	)
	for _, issue := range issues {
		fields := transformIssue(issue, mappings)
		if len(fields) == 0 {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, syncjob.RecordError{
				SourceID:    issue.ID,
				SourceTitle: issue.Title(),
				Message:     err.Error(),
			})
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(issue provider.Issue, fields map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			created, updated, recErr := s.writeRecord(ctx, sy, dest, issue, fields)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case recErr != nil:
				result.Errors = append(result.Errors, *recErr)
			case updated:
				result.Updated++
			case created:
				result.Created++
			}
		}(issue, fields)
	}
	wg.Wait()

	return result, s.finishRun(ctx, sy, started, result, nil)
}

// writeRecord mirrors one source issue into the destination. A crosswalk
// hit refreshes the existing link instead of creating a duplicate.
func (s *SyncService) writeRecord(ctx context.Context, sy *syncjob.Sync, dest provider.Provider, issue provider.Issue, fields map[string]any) (created, updated bool, recErr *syncjob.RecordError) {
	entry, err := s.store.GetCrosswalk(ctx, sy.ID, issue.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		// An unreadable crosswalk must not trigger a blind create.
		return false, false, &syncjob.RecordError{
			SourceID:    issue.ID,
			SourceTitle: issue.Title(),
			Message:     fmt.Sprintf("read crosswalk: %v", err),
		}
	}
	if err == nil {
		entry.LastSyncedAt = time.Now().UTC()
		if err := s.store.UpsertCrosswalk(ctx, entry); err != nil {
			return false, false, &syncjob.RecordError{
				SourceID:    issue.ID,
				SourceTitle: issue.Title(),
				Message:     fmt.Sprintf("refresh crosswalk: %v", err),
			}
		}
		return false, true, nil
	}

	destIssue, err := dest.CreateIssue(ctx, sy.DestProjectID, fields)
	if err != nil {
		return false, false, &syncjob.RecordError{
			SourceID:    issue.ID,
			SourceTitle: issue.Title(),
			Message:     err.Error(),
		}
	}

	if err := s.store.UpsertCrosswalk(ctx, &syncjob.CrosswalkEntry{
		SyncID:         sy.ID,
		SourceRecordID: issue.ID,
		DestRecordID:   destIssue.ID,
		LastSyncedAt:   time.Now().UTC(),
	}); err != nil {
		// The destination record exists but the link was lost; the next run
		// would duplicate it. Surface this as a record error.
		return false, false, &syncjob.RecordError{
			SourceID:    issue.ID,
			SourceTitle: issue.Title(),
			Message:     fmt.Sprintf("record crosswalk: %v", err),
		}
	}
	return true, false, nil
}

// finishRun records the outcome, restores the lifecycle status, publishes
// the run event, and counts metrics. runErr reports a run-level abort.
func (s *SyncService) finishRun(ctx context.Context, sy *syncjob.Sync, started time.Time, result *syncjob.RunResult, runErr error) error {
	outcome := syncjob.RunError
	status := syncjob.StatusError
	if runErr == nil {
		outcome = result.Status()
		if outcome != syncjob.RunError {
			status = syncjob.StatusCompleted
		}
	}

	if err := s.store.RecordSyncRun(ctx, sy.ID, outcome); err != nil {
		s.logger.Error("record sync run failed", "sync_id", sy.ID, "error", err)
	}
	if err := s.store.UpdateSyncStatus(ctx, sy.ID, status); err != nil {
		s.logger.Error("update sync status failed", "sync_id", sy.ID, "error", err)
	}

	if s.metrics != nil {
		s.metrics.RunDuration.Record(ctx, time.Since(started).Seconds())
		if status == syncjob.StatusError {
			s.metrics.RunsFailed.Add(ctx, 1)
		} else {
			s.metrics.RunsCompleted.Add(ctx, 1)
		}
		if result != nil {
			s.metrics.RecordsCreated.Add(ctx, int64(result.Created))
			s.metrics.RecordsUpdated.Add(ctx, int64(result.Updated))
			s.metrics.RecordErrors.Add(ctx, int64(len(result.Errors)))
		}
	}

	ev := events.RunCompleted{
		SyncID:     sy.ID,
		UserID:     sy.UserID,
		Status:     string(outcome),
		FinishedAt: time.Now().UTC(),
	}
	if result != nil {
		ev.Created = result.Created
		ev.Updated = result.Updated
		ev.ErrorCount = len(result.Errors)
	}
	if s.publisher != nil {
		// Best effort: a lost event never changes the run's outcome.
		if err := s.publisher.PublishRunCompleted(ctx, ev); err != nil {
			s.logger.Warn("run event publish failed", "sync_id", sy.ID, "error", err)
		}
	}

	s.logger.Info("sync run finished",
		"sync_id", sy.ID,
		"run_id", logger.RunID(ctx),
		"status", outcome,
		"created", ev.Created,
		"updated", ev.Updated,
		"errors", ev.ErrorCount,
		"duration", time.Since(started))

	return runErr
}

// buildProvider constructs an adapter for one side of the sync. The base
// URL comes from the provider's OAuth registration; the credential's stored
// base URL, when present, wins (region-pinned tenants).
func (s *SyncService) buildProvider(name, userID, companyID string) (provider.Provider, error) {
	app, ok := s.providers.App(name)
	if !ok {
		return nil, syncerr.Validation("unknown provider %q", name)
	}
	return s.newProvider(name, provider.Config{
		BaseURL:   app.BaseURL,
		Tokens:    s.tokens.Source(userID, name),
		CompanyID: companyID,
		Timeout:   s.httpTimeout,
	})
}

// transformIssue applies the field mappings to one source issue. Absent and
// empty source values are skipped so provider defaults survive; title,
// description, and status are backfilled from like-named source fields when
// no mapping supplies them.
func transformIssue(issue provider.Issue, mappings []syncjob.FieldMapping) map[string]any {
	fields := make(map[string]any, len(mappings))
	for _, m := range mappings {
		v, ok := issue.Fields[m.SourceField]
		if !ok || provider.IsEmptyValue(v) {
			continue
		}
		fields[m.DestField] = v
	}
	for _, name := range backfillFields {
		if _, ok := fields[name]; ok {
			continue
		}
		if v, ok := issue.Fields[name]; ok && !provider.IsEmptyValue(v) {
			fields[name] = v
		}
	}
	return fields
}
