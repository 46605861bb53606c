package service_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/infra/cache"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/infra/session"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockLedgerAPI struct {
	mu sync.Mutex

	users   map[string]domain.AuthUser
	entries []domain.Entry
	nextID  int

	loginErr  error
	signupErr error
	listErr   error
	createErr error
	deleteErr error

	// listHook runs before ListEntries answers; tests use it to block.
	listHook func()

	listCalls   int
	createCalls int
	deleteCalls int
	lastToken   string
}

func newMockLedgerAPI() *mockLedgerAPI {
	return &mockLedgerAPI{users: map[string]domain.AuthUser{}}
}

func (m *mockLedgerAPI) Signup(_ context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signupErr != nil {
		return nil, m.signupErr
	}
	user := domain.AuthUser{Username: req.Username, Name: req.Name}
	m.users[req.Username] = user
	return &domain.AuthResponse{Token: "tok-" + req.Username, User: user}, nil
}

func (m *mockLedgerAPI) Login(_ context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	user, ok := m.users[req.Username]
	if !ok {
		return nil, &domain.ErrHTTP{Status: 401, Message: "Invalid credentials"}
	}
	return &domain.AuthResponse{Token: "tok-" + req.Username, User: user}, nil
}

func (m *mockLedgerAPI) ListEntries(ctx context.Context, token string) ([]domain.Entry, error) {
	m.mu.Lock()
	hook := m.listHook
	m.listCalls++
	m.lastToken = token
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	// like the real client, a cancelled request surfaces as a network error
	if err := ctx.Err(); err != nil {
		return nil, &domain.ErrNetwork{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *mockLedgerAPI) CreateEntry(_ context.Context, token string, in *domain.NewEntry) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.lastToken = token
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	ts, _ := time.Parse(domain.DateLayout, in.Timestamp)
	e := domain.Entry{
		ID:        "e" + strconv.Itoa(m.nextID),
		Type:      in.Type,
		Amount:    in.Amount,
		Note:      in.Note,
		Timestamp: ts,
	}
	m.entries = append([]domain.Entry{e}, m.entries...)
	return &e, nil
}

func (m *mockLedgerAPI) DeleteEntry(_ context.Context, token, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	m.lastToken = token
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return &domain.ErrHTTP{Status: 404, Message: fmt.Sprintf("entry %s not found", id)}
}

func (m *mockLedgerAPI) calls() (list, create, del int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.createCalls, m.deleteCalls
}

// --- Helpers ---

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestApp(api *mockLedgerAPI) (*service.App, *session.MemoryStore, *observability.Metrics) {
	store := session.NewMemoryStore()
	metrics := observability.NewMetrics()
	boards := cache.New[*service.Board](time.Minute)
	app := service.NewApp(api, store, boards, metrics, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
	return app, store, metrics
}

func newTestBoard(api *mockLedgerAPI) (*service.Board, *observability.Metrics) {
	metrics := observability.NewMetrics()
	sess := domain.Session{Username: "john", DisplayName: "John", Token: "tok-john"}
	board := service.NewBoard(api, sess, metrics, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
	return board, metrics
}

func newMemoryStore() *session.MemoryStore { return session.NewMemoryStore() }

func nopLogger() *zap.Logger { return zap.NewNop() }
