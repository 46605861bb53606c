package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/port"

	"go.uber.org/zap"
)

const boardCacheName = "board"

// App is the session bootstrap: it decides between the auth view and the
// dashboard and hands out the board for the current session.
type App struct {
	api     port.LedgerAPI
	store   port.SessionStore
	auth    *AuthService
	form    *AuthForm
	boards  port.Cache[*Board]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	loadTimeout time.Duration

	// boardMu makes the cache lookup and insert in boardFor one step.
	boardMu sync.Mutex
}

// NewApp wires the bootstrap. boards caches one Board per token.
func NewApp(
	api port.LedgerAPI,
	store port.SessionStore,
	boards port.Cache[*Board],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *App {
	auth := NewAuthService(api, store, logger)
	return &App{
		api:     api,
		store:   store,
		auth:    auth,
		form:    NewAuthForm(auth),
		boards:  boards,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the clock used for token expiry and form dates.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// WithLoadTimeout bounds each board's shared entry load.
func (a *App) WithLoadTimeout(d time.Duration) *App {
	a.loadTimeout = d
	return a
}

// Start restores the persisted session. A session whose token is missing
// or expired is cleared and the auth view is shown.
func (a *App) Start(ctx context.Context) (domain.View, error) {
	sess, err := a.store.Load()
	if err != nil {
		return domain.ViewAuth, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return domain.ViewAuth, nil
	}

	if !TokenUsable(sess.Token, a.now()) {
		a.logger.Info("persisted session is no longer valid", zap.String("username", sess.Username))
		if err := a.store.Clear(); err != nil {
			return domain.ViewAuth, fmt.Errorf("clear session: %w", err)
		}
		return domain.ViewAuth, nil
	}

	a.logger.Info("resumed session", zap.String("username", sess.Username))
	return domain.ViewDashboard, nil
}

// Session returns the usable persisted session, or nil.
func (a *App) Session() (*domain.Session, error) {
	sess, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || !TokenUsable(sess.Token, a.now()) {
		return nil, nil
	}
	return sess, nil
}

// View reports which screen applies right now.
func (a *App) View() (domain.View, error) {
	sess, err := a.Session()
	if err != nil {
		return domain.ViewAuth, err
	}
	if sess == nil {
		return domain.ViewAuth, nil
	}
	return domain.ViewDashboard, nil
}

// Status summarizes the view along with the auth form state.
func (a *App) Status() (*domain.SessionStatus, error) {
	sess, err := a.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return &domain.SessionStatus{
			View:  domain.ViewAuth,
			Mode:  a.form.Mode(),
			Error: a.form.Error(),
		}, nil
	}
	return &domain.SessionStatus{
		View:     domain.ViewDashboard,
		Username: sess.Username,
		Greeting: sess.Greeting(),
	}, nil
}

// AuthForm exposes the login/signup form.
func (a *App) AuthForm() *AuthForm {
	return a.form
}

// SubmitAuth submits the auth form and, on success, loads the new
// session's entries. A failed initial fetch is returned alongside the
// session; the dashboard then shows an empty list.
func (a *App) SubmitAuth(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	sess, err := a.form.Submit(ctx, creds)
	if err != nil {
		return nil, err
	}

	board := a.boardFor(*sess)
	if err := board.Load(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// Board returns the board for the current session, reusing a cached one
// while its token stays the same.
func (a *App) Board(ctx context.Context) (*Board, error) {
	sess, err := a.Session()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &domain.ErrUnauthorized{Message: "not logged in"}
	}
	return a.boardFor(*sess), nil
}

// Dashboard returns the dashboard, loading entries on first use.
func (a *App) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	board, err := a.Board(ctx)
	if err != nil {
		return nil, err
	}
	loadErr := board.EnsureLoaded(ctx)
	return board.Dashboard(), loadErr
}

// Logout clears the session, forgets its board and resets the auth form.
func (a *App) Logout() error {
	sess, err := a.store.Load()
	if err != nil {
		a.logger.Warn("reading session during logout", zap.Error(err))
	}
	if sess != nil {
		a.boardMu.Lock()
		a.boards.Delete(sess.Token)
		a.boardMu.Unlock()
	}
	if err := a.auth.Logout(); err != nil {
		return err
	}
	a.form.Reset()
	return nil
}

func (a *App) boardFor(sess domain.Session) *Board {
	a.boardMu.Lock()
	defer a.boardMu.Unlock()

	if board, ok := a.boards.Get(sess.Token); ok {
		a.metrics.IncrCacheHit(boardCacheName)
		return board
	}
	a.metrics.IncrCacheMiss(boardCacheName)

	board := NewBoard(a.api, sess, a.metrics, a.logger).
		WithClock(a.now).
		WithLoadTimeout(a.loadTimeout)
	a.boards.Set(sess.Token, board)
	return board
}
