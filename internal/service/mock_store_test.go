package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brixworks/sitesync/internal/domain"
	"github.com/brixworks/sitesync/internal/domain/credential"
	"github.com/brixworks/sitesync/internal/domain/syncjob"
	"github.com/brixworks/sitesync/internal/port/database"
)

// mockStore is an in-memory database.Store for service tests.
type mockStore struct {
	mu          sync.Mutex
	credentials map[string]*credential.Credential // keyed userID+"/"+provider
	syncs       map[string]*syncjob.Sync
	crosswalk   map[string]*syncjob.CrosswalkEntry // keyed syncID+"/"+sourceRecordID

	upsertCredentialErr error
	getCredentialErr    error
}

var _ database.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		credentials: make(map[string]*credential.Credential),
		syncs:       make(map[string]*syncjob.Sync),
		crosswalk:   make(map[string]*syncjob.CrosswalkEntry),
	}
}

func (m *mockStore) GetCredential(_ context.Context, userID, provider string) (*credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getCredentialErr != nil {
		return nil, m.getCredentialErr
	}
	c, ok := m.credentials[userID+"/"+provider]
	if !ok {
		return nil, fmt.Errorf("credential %s/%s: %w", userID, provider, domain.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *mockStore) ListCredentials(_ context.Context, userID string) ([]credential.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []credential.Credential
	for _, c := range m.credentials {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertCredential(_ context.Context, c *credential.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertCredentialErr != nil {
		return m.upsertCredentialErr
	}
	cp := *c
	m.credentials[c.UserID+"/"+c.Provider] = &cp
	return nil
}

func (m *mockStore) DeleteCredential(_ context.Context, userID, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "/" + provider
	if _, ok := m.credentials[key]; !ok {
		return fmt.Errorf("credential %s/%s: %w", userID, provider, domain.ErrNotFound)
	}
	delete(m.credentials, key)
	return nil
}

func (m *mockStore) CreateSync(_ context.Context, s *syncjob.Sync) (*syncjob.Sync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = fmt.Sprintf("sync-%d", len(m.syncs)+1)
	}
	s.Status = syncjob.StatusDraft
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.syncs[s.ID] = &cp
	return s, nil
}

func (m *mockStore) GetSync(_ context.Context, id string) (*syncjob.Sync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.syncs[id]
	if !ok {
		return nil, fmt.Errorf("sync %s: %w", id, domain.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) ListSyncs(_ context.Context, userID string) ([]syncjob.Sync, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []syncjob.Sync
	for _, s := range m.syncs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateSyncStatus(_ context.Context, id string, status syncjob.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.syncs[id]
	if !ok {
		return fmt.Errorf("sync %s: %w", id, domain.ErrNotFound)
	}
	s.Status = status
	return nil
}

func (m *mockStore) RecordSyncRun(_ context.Context, id string, outcome syncjob.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.syncs[id]
	if !ok {
		return fmt.Errorf("sync %s: %w", id, domain.ErrNotFound)
	}
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunStatus = outcome
	return nil
}

func (m *mockStore) DeleteSync(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.syncs[id]; !ok {
		return fmt.Errorf("sync %s: %w", id, domain.ErrNotFound)
	}
	delete(m.syncs, id)
	return nil
}

func (m *mockStore) GetCrosswalk(_ context.Context, syncID, sourceRecordID string) (*syncjob.CrosswalkEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.crosswalk[syncID+"/"+sourceRecordID]
	if !ok {
		return nil, fmt.Errorf("crosswalk %s/%s: %w", syncID, sourceRecordID, domain.ErrNotFound)
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) ListCrosswalk(_ context.Context, syncID string) ([]syncjob.CrosswalkEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []syncjob.CrosswalkEntry
	for _, e := range m.crosswalk {
		if e.SyncID == syncID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertCrosswalk(_ context.Context, e *syncjob.CrosswalkEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.LastSyncedAt.IsZero() {
		e.LastSyncedAt = time.Now()
	}
	cp := *e
	m.crosswalk[e.SyncID+"/"+e.SourceRecordID] = &cp
	return nil
}
