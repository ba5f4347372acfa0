package fieldwire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brixworks/sitesync/internal/port/provider"
)

// Compile-time interface check.
var _ provider.Provider = (*Provider)(nil)

type fakeTokens struct{}

func (fakeTokens) Bearer(_ context.Context) (string, error) { return "tok", nil }

func TestListIssuesMapsTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/projects/p-1/tasks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id":"t-1","name":"Patch drywall","description":"Room 204","status":"OPEN","due_at":"2025-07-01T00:00:00Z","priority":2},
			{"id":"t-2","name":"No due date","status":"open","due_at":"1970-01-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	issues, err := NewProvider(srv.URL, fakeTokens{}, time.Second).ListIssues(context.Background(), "p-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}

	first := issues[0]
	if first.Fields["title"] != "Patch drywall" {
		t.Fatalf("expected task name mapped to title, got %v", first.Fields["title"])
	}
	if first.Fields["status"] != "open" {
		t.Fatalf("expected lowered status, got %v", first.Fields["status"])
	}
	if first.Fields["due_date"] != "2025-07-01" {
		t.Fatalf("expected normalized date, got %v", first.Fields["due_date"])
	}

	// The epoch placeholder must be discarded, not forwarded.
	if _, ok := issues[1].Fields["due_date"]; ok {
		t.Fatal("sentinel empty date must not survive normalization")
	}
}

func TestCreateIssueTranslatesTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload["name"] != "Install handrail" {
			t.Errorf("expected title mapped to name, got %v", payload["name"])
		}
		if _, ok := payload["title"]; ok {
			t.Error("normalized field name must not leak onto the wire")
		}
		if _, ok := payload["internal_ref"]; ok {
			t.Error("unknown field must be stripped")
		}
		if payload["due_at"] != "2025-08-09" {
			t.Errorf("expected normalized due_at, got %v", payload["due_at"])
		}
		_, _ = w.Write([]byte(`{"id":"t-9","name":"Install handrail","status":"open"}`))
	}))
	defer srv.Close()

	created, err := NewProvider(srv.URL, fakeTokens{}, time.Second).CreateIssue(context.Background(), "p-1", map[string]any{
		"title":        "Install handrail",
		"due_date":     "2025-08-09",
		"internal_ref": "x-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID != "t-9" {
		t.Fatalf("expected t-9, got %q", created.ID)
	}
	if created.Fields["title"] != "Install handrail" {
		t.Fatalf("expected title on created record, got %v", created.Fields["title"])
	}
}

func TestCreateIssueDropsSentinelDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if _, ok := payload["due_at"]; ok {
			t.Error("sentinel date must not be transmitted")
		}
		_, _ = w.Write([]byte(`{"id":"t-10","name":"No date"}`))
	}))
	defer srv.Close()

	_, err := NewProvider(srv.URL, fakeTokens{}, time.Second).CreateIssue(context.Background(), "p-1", map[string]any{
		"title":    "No date",
		"due_date": "1970-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
}
