package projections

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/resilience"
)

const feedBody = `[
  {"player_id": "p1", "player_name": "Player One", "position": "QB", "team": "DAL", "opponent": "PHI", "week": 5, "projected_points": 22.4},
  {"player_id": "p2", "player_name": "Player Two", "position": "QB", "team": "NYG", "opponent": "WAS", "week": 5, "projected_points": 19.1, "injury_status": "Q"},
  {"player_id": "", "player_name": "Nameless", "position": "QB", "week": 5, "projected_points": 10}
]`

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:    baseURL,
		Token:      "feed-token",
		Timeout:    2 * time.Second,
		MaxRetries: maxRetries,
		CacheTTL:   time.Minute,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled: false,
		},
	})
}

func TestClientProjections(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/projections" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("position"); got != "QB" {
			t.Errorf("unexpected position %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer feed-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0)
	items, err := client.Projections(t.Context(), "qb", 5)
	if err != nil {
		t.Fatalf("projections failed: %v", err)
	}
	// The record with an empty player_id is dropped.
	if len(items) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(items))
	}
	if items[0].PlayerID != "p1" || items[1].PlayerID != "p2" {
		t.Fatalf("unexpected feed order: %+v", items)
	}
	if items[1].InjuryStatus != "Q" {
		t.Fatalf("expected injury status Q, got %q", items[1].InjuryStatus)
	}

	// Second call for the same (position, week) is served from cache.
	if _, err := client.Projections(t.Context(), "QB", 5); err != nil {
		t.Fatalf("cached projections failed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
}

func TestClientProjections_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feedBody))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2)
	items, err := client.Projections(t.Context(), "QB", 5)
	if err != nil {
		t.Fatalf("projections failed after retry: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 projections, got %d", len(items))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", got)
	}
}

func TestClientProjections_ClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3)
	if _, err := client.Projections(t.Context(), "QB", 5); err == nil {
		t.Fatal("expected an error from a 403 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream call, got %d", got)
	}
}

func TestClientProjections_InvalidInput(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0", 0)

	if _, err := client.Projections(t.Context(), " ", 5); err == nil {
		t.Fatal("expected an error for a blank position")
	}
	if _, err := client.Projections(t.Context(), "QB", 0); err == nil {
		t.Fatal("expected an error for week zero")
	}
}
