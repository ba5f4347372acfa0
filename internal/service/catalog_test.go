package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brixworks/sitesync/internal/config"
	"github.com/brixworks/sitesync/internal/port/provider"
)

type countingProvider struct {
	fakeProvider
	listCalls int
}

func (c *countingProvider) ListProjects(_ context.Context) ([]provider.Project, error) {
	c.listCalls++
	return []provider.Project{{ID: "p-1", Name: "Tower A"}}, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}
func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}
func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestListProjectsCaches(t *testing.T) {
	store := newMockStore()
	seedBothCredentials(store)

	cp := &countingProvider{fakeProvider: fakeProvider{name: "procore"}}
	providers := config.Providers{Procore: config.OAuthApp{BaseURL: "http://procore.test"}}
	tokens := NewTokenManager(store, mustCipher(t), providers, 5*time.Minute, discardLogger())

	svc := NewCatalogService(newMemCache(), tokens, providers, config.Cache{CatalogTTL: time.Minute}, time.Second, discardLogger())
	svc.newProvider = func(name string, _ provider.Config) (provider.Provider, error) {
		if name != "procore" {
			return nil, fmt.Errorf("unexpected provider %q", name)
		}
		return cp, nil
	}

	for i := 0; i < 3; i++ {
		projects, err := svc.ListProjects(context.Background(), "u-1", "procore")
		if err != nil {
			t.Fatal(err)
		}
		if len(projects) != 1 || projects[0].ID != "p-1" {
			t.Fatalf("unexpected projects %+v", projects)
		}
	}
	if cp.listCalls != 1 {
		t.Fatalf("expected 1 live listing across 3 calls, got %d", cp.listCalls)
	}
}

func TestListProjectsUnknownProvider(t *testing.T) {
	store := newMockStore()
	tokens := NewTokenManager(store, mustCipher(t), config.Providers{}, 5*time.Minute, discardLogger())
	svc := NewCatalogService(newMemCache(), tokens, config.Providers{}, config.Cache{}, time.Second, discardLogger())

	if _, err := svc.ListProjects(context.Background(), "u-1", "nope"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestFieldCatalogKnownProviders(t *testing.T) {
	for _, name := range []string{"procore", "acc", "fieldwire"} {
		cat, ok := FieldCatalog(name)
		if !ok {
			t.Fatalf("missing catalog for %s", name)
		}
		if _, ok := cat["title"]; !ok {
			t.Fatalf("catalog for %s must expose a title field", name)
		}
	}
	if _, ok := FieldCatalog("sharepoint"); ok {
		t.Fatal("unknown provider must have no catalog")
	}
}
