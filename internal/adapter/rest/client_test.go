package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/brixworks/sitesync/internal/domain/syncerr"
)

type staticTokens struct {
	token string
	err   error
	calls atomic.Int32
}

func (s *staticTokens) Bearer(_ context.Context) (string, error) {
	s.calls.Add(1)
	return s.token, s.err
}

func newTestClient(name, baseURL string, tokens *staticTokens) *Client {
	c := New(name, baseURL, tokens, time.Second)
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestGetSetsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient("procore", srv.URL, &staticTokens{token: "tok-1"})
	body, err := c.Get(context.Background(), "/rest/v1.0/projects", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient("acc", srv.URL, &staticTokens{token: "t"})
	if _, err := c.Get(context.Background(), "/hubs", nil, nil); err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestExhaustedRetriesAreRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient("acc", srv.URL, &staticTokens{token: "t"})
	_, err := c.Get(context.Background(), "/hubs", nil, nil)
	if !syncerr.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestClientErrorIsVerbatimAndFinal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":["name can't be blank"]}`))
	}))
	defer srv.Close()

	c := newTestClient("fieldwire", srv.URL, &staticTokens{token: "t"})
	_, err := c.Post(context.Background(), "/tasks", map[string]string{"x": "y"}, nil)

	var pe *syncerr.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != 422 {
		t.Fatalf("expected 422, got %d", pe.StatusCode)
	}
	if pe.Message != `{"errors":["name can't be blank"]}` {
		t.Fatalf("expected verbatim provider message, got %q", pe.Message)
	}
	if hits.Load() != 1 {
		t.Fatalf("4xx must not be retried, got %d attempts", hits.Load())
	}
}

func TestTokenFailureIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("request must not reach the provider when the token source fails")
	}))
	defer srv.Close()

	tokens := &staticTokens{err: syncerr.TerminalAuth("procore", errors.New("invalid_grant"))}
	c := newTestClient("procore", srv.URL, tokens)

	_, err := c.Get(context.Background(), "/projects", nil, nil)
	if !syncerr.IsTerminalAuth(err) {
		t.Fatalf("expected terminal auth error, got %v", err)
	}
	if tokens.calls.Load() != 1 {
		t.Fatalf("expected a single token attempt, got %d", tokens.calls.Load())
	}
}
