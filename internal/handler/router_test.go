package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/handler"
	"github.com/boddenberg/ledger-client-go/internal/infra/cache"
	"github.com/boddenberg/ledger-client-go/internal/infra/client"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/infra/resilience"
	"github.com/boddenberg/ledger-client-go/internal/infra/session"
	"github.com/boddenberg/ledger-client-go/internal/service"
	"github.com/boddenberg/ledger-client-go/internal/testutil/fakebackend"

	"go.uber.org/zap"
)

func TestHealthz(t *testing.T) {
	router := handler.NewRouter(nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := handler.NewRouter(nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := handler.NewRouter(nil, observability.NewMetrics(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// --- Full stack against the in-memory backend ---

type testStack struct {
	router  http.Handler
	backend *fakebackend.Backend
}

func newStack(t *testing.T) *testStack {
	t.Helper()
	backend := fakebackend.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	metrics := observability.NewMetrics()
	api := client.NewClient(
		&http.Client{Timeout: 5 * time.Second},
		srv.URL,
		client.NewCircuitBreaker(),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		metrics,
		zap.NewNop(),
	)
	boards := cache.New[*service.Board](time.Minute)
	t.Cleanup(boards.Close)

	app := service.NewApp(api, session.NewMemoryStore(), boards, metrics, zap.NewNop())
	return &testStack{
		router:  handler.NewRouter(app, metrics, zap.NewNop()),
		backend: backend,
	}
}

func (s *testStack) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestSessionSignedOut(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/v1/session", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	status := decode[domain.SessionStatus](t, rec)
	if status.View != domain.ViewAuth || status.Mode != domain.AuthModeLogin {
		t.Errorf("unexpected status %+v", status)
	}

	if rec := s.do(t, http.MethodGet, "/v1/dashboard", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for dashboard without session, got %d", rec.Code)
	}
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"ghost","password":"x"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["error"]; got != "Invalid credentials" {
		t.Errorf("unexpected error %q", got)
	}

	status := decode[domain.SessionStatus](t, s.do(t, http.MethodGet, "/v1/session", ""))
	if status.Error != "Invalid credentials" {
		t.Errorf("expected form error to be kept, got %q", status.Error)
	}
}

func TestAuthModeSwitch(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodPost, "/v1/auth/mode", `{"mode":"signup"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if status := decode[domain.SessionStatus](t, rec); status.Mode != domain.AuthModeSignup {
		t.Errorf("expected signup mode, got %s", status.Mode)
	}

	if rec := s.do(t, http.MethodPost, "/v1/auth/mode", `{"mode":"magic"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestEntriesFlow(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")

	rec := s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"John","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/v1/entries", `{"type":"credit","amount":"100","note":"salary","date":"2024-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create credit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodPost, "/v1/entries", `{"type":"debit","amount":"40","note":"groceries","date":"2024-01-02"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debit: expected 201, got %d", rec.Code)
	}
	debit := decode[domain.Entry](t, rec)

	d := decode[domain.Dashboard](t, s.do(t, http.MethodGet, "/v1/dashboard", ""))
	if d.Greeting != "Hi, John" || len(d.Entries) != 2 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if d.Totals.Balance.String() != "60" {
		t.Errorf("expected balance 60, got %s", d.Totals.Balance)
	}

	if rec := s.do(t, http.MethodDelete, "/v1/entries/"+debit.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	d = decode[domain.Dashboard](t, s.do(t, http.MethodPost, "/v1/entries/refresh", ""))
	if len(d.Entries) != 1 || d.Entries[0].Note != "salary" {
		t.Errorf("expected only salary after delete, got %+v", d.Entries)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	rec := s.do(t, http.MethodPost, "/v1/entries", `{"type":"credit","amount":"0","date":"2024-01-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if n := s.backend.CallCount("POST /entries"); n != 0 {
		t.Errorf("expected no backend create, got %d", n)
	}

	form := decode[domain.EntryForm](t, s.do(t, http.MethodGet, "/v1/entries/form", ""))
	if form.Amount != "0" {
		t.Errorf("expected invalid form to be kept, got %+v", form)
	}
}

func TestEntryFormPutThenSubmit(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	rec := s.do(t, http.MethodPut, "/v1/entries/form", `{"type":"debit","amount":"9.99","note":"book","date":"2024-02-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put form: expected 200, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/entries", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if e := decode[domain.Entry](t, rec); e.Note != "book" || e.Type != domain.EntryDebit {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestDeleteFailureReportsBackendStatus(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	rec := s.do(t, http.MethodDelete, "/v1/entries/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 passthrough, got %d", rec.Code)
	}
}

func TestRefreshMalformedBackendBodyIsBadGateway(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	s.backend.RespondRaw("GET /entries", http.StatusOK, `{"entries":[]}`)
	rec := s.do(t, http.MethodPost, "/v1/entries/refresh", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec)["error"]; !strings.Contains(got, "unexpected response") {
		t.Errorf("unexpected error %q", got)
	}
}

func TestLogout(t *testing.T) {
	s := newStack(t)
	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	if rec := s.do(t, http.MethodPost, "/v1/auth/logout", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	status := decode[domain.SessionStatus](t, s.do(t, http.MethodGet, "/v1/session", ""))
	if status.View != domain.ViewAuth {
		t.Errorf("expected auth view after logout, got %s", status.View)
	}
}

func TestPage(t *testing.T) {
	s := newStack(t)

	rec := s.do(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ledger login") {
		t.Fatalf("expected auth prompt, got %d: %s", rec.Code, rec.Body.String())
	}

	s.backend.AddUser("john", "secret", "John")
	s.do(t, http.MethodPost, "/v1/auth/login", `{"username":"john","password":"secret"}`)

	rec = s.do(t, http.MethodGet, "/", "")
	body := rec.Body.String()
	if !strings.Contains(body, "Hi, John") || !strings.Contains(body, "<table>") {
		t.Errorf("expected dashboard page, got %s", body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}
}
