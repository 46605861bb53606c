package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/handler"
	"github.com/boddenberg/ledger-client-go/internal/infra/cache"
	"github.com/boddenberg/ledger-client-go/internal/infra/client"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/infra/resilience"
	"github.com/boddenberg/ledger-client-go/internal/infra/session"
	"github.com/boddenberg/ledger-client-go/internal/port"
	"github.com/boddenberg/ledger-client-go/internal/service"
	"github.com/boddenberg/ledger-client-go/internal/testutil/fakebackend"

	"go.uber.org/zap"
)

type harness struct {
	backend *fakebackend.Backend
	api     *client.Client
	metrics *observability.Metrics
}

func newHarness(t *testing.T, maxRetries int) *harness {
	t.Helper()
	backend := fakebackend.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	api := client.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		srv.URL+"/",
		client.NewCircuitBreaker(),
		resilience.Config{MaxRetries: maxRetries, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10},
		metrics,
		zap.NewNop(),
	)
	return &harness{backend: backend, api: api, metrics: metrics}
}

func (h *harness) newApp(t *testing.T, store port.SessionStore) *service.App {
	t.Helper()
	boards := cache.New[*service.Board](5 * time.Minute)
	t.Cleanup(boards.Close)
	return service.NewApp(h.api, store, boards, h.metrics, zap.NewNop())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

// TestIntegration_FullFlow drives the local web surface over real HTTP
// against the in-memory backend.
func TestIntegration_FullFlow(t *testing.T) {
	h := newHarness(t, 1)
	h.backend.AddUser("john", "secret", "John")

	app := h.newApp(t, session.NewMemoryStore())
	bff := httptest.NewServer(handler.NewRouter(app, h.metrics, zap.NewNop()))
	defer bff.Close()

	resp := postJSON(t, bff.URL+"/v1/auth/login", domain.Credentials{Username: "john", Password: "secret"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}

	for _, form := range []domain.EntryForm{
		{Type: domain.EntryCredit, Amount: "100", Note: "salary", Date: "2024-01-01"},
		{Type: domain.EntryDebit, Amount: "40", Note: "groceries", Date: "2024-01-02"},
	} {
		resp := postJSON(t, bff.URL+"/v1/entries", form)
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s: expected 201, got %d", form.Note, resp.StatusCode)
		}
	}

	resp, err := http.Get(bff.URL + "/v1/dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	defer resp.Body.Close()

	var d domain.Dashboard
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if d.Greeting != "Hi, John" {
		t.Errorf("expected greeting 'Hi, John', got %q", d.Greeting)
	}
	if d.Totals.Credit.String() != "100" || d.Totals.Debit.String() != "40" || d.Totals.Balance.String() != "60" {
		t.Errorf("unexpected totals %+v", d.Totals)
	}
	if len(d.Entries) != 2 || d.Entries[0].Note != "groceries" {
		t.Errorf("expected newest first, got %+v", d.Entries)
	}
}

// TestIntegration_SessionSurvivesRestart persists the session to disk and
// resumes it from a fresh app.
func TestIntegration_SessionSurvivesRestart(t *testing.T) {
	h := newHarness(t, 0)
	h.backend.AddUser("john", "secret", "John")
	path := filepath.Join(t.TempDir(), "session.yaml")

	first := h.newApp(t, session.NewFileStore(path))
	if _, err := first.SubmitAuth(context.Background(), domain.Credentials{Username: "john", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	board, err := first.Board(context.Background())
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	board.SetForm(domain.EntryForm{Type: domain.EntryCredit, Amount: "12.34", Note: "kept", Date: "2024-03-01"})
	if _, err := board.Add(context.Background()); err != nil {
		t.Fatalf("add: %v", err)
	}

	second := h.newApp(t, session.NewFileStore(path))
	view, err := second.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view != domain.ViewDashboard {
		t.Fatalf("expected dashboard view after restart, got %s", view)
	}

	d, err := second.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.Entries) != 1 || d.Entries[0].Amount.String() != "12.34" {
		t.Errorf("expected persisted entry, got %+v", d.Entries)
	}
}

// TestIntegration_ListRetriedOn5xx checks that a transient backend failure
// on a read is retried while a failed write is not.
func TestIntegration_ListRetriedOn5xx(t *testing.T) {
	h := newHarness(t, 2)
	h.backend.AddUser("john", "secret", "John")

	app := h.newApp(t, session.NewMemoryStore())
	if _, err := app.SubmitAuth(context.Background(), domain.Credentials{Username: "john", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	board, _ := app.Board(context.Background())

	h.backend.Fail("GET /entries", http.StatusServiceUnavailable)
	before := h.backend.CallCount("GET /entries")
	if err := board.Load(context.Background()); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if got := h.backend.CallCount("GET /entries") - before; got != 2 {
		t.Errorf("expected 2 list calls, got %d", got)
	}

	h.backend.Fail("POST /entries", http.StatusServiceUnavailable)
	board.SetForm(domain.EntryForm{Type: domain.EntryCredit, Amount: "1", Date: "2024-01-01"})
	if _, err := board.Add(context.Background()); err == nil {
		t.Fatal("expected create to fail")
	}
	if got := h.backend.CallCount("POST /entries"); got != 1 {
		t.Errorf("expected a single create attempt, got %d", got)
	}
}

// TestIntegration_BackendDown reports the fixed network message and leaves
// an empty dashboard.
func TestIntegration_BackendDown(t *testing.T) {
	h := newHarness(t, 0)
	h.backend.AddUser("john", "secret", "John")

	store := session.NewMemoryStore()
	app := h.newApp(t, store)
	if _, err := app.SubmitAuth(context.Background(), domain.Credentials{Username: "john", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	deadAPI := client.NewClient(
		&http.Client{Timeout: time.Second},
		"http://127.0.0.1:1",
		client.NewCircuitBreaker(),
		resilience.Config{},
		h.metrics,
		zap.NewNop(),
	)

	boards := cache.New[*service.Board](time.Minute)
	defer boards.Close()
	offline := service.NewApp(deadAPI, store, boards, h.metrics, zap.NewNop())

	d, err := offline.Dashboard(context.Background())
	if err == nil || err.Error() != domain.NetworkErrorMessage {
		t.Fatalf("expected network error, got %v", err)
	}
	if d == nil || len(d.Entries) != 0 {
		t.Errorf("expected empty dashboard, got %+v", d)
	}
	if h.metrics.Snapshot().NetworkErrors < 1 {
		t.Error("expected a network error to be counted")
	}
}
