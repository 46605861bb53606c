package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var boardTracer = otel.Tracer("service/board")

// DefaultLoadTimeout bounds a shared entry load once it no longer follows
// any single caller's context.
const DefaultLoadTimeout = 30 * time.Second

// Board is the ledger dashboard state for one session: the loaded
// entries, the add-entry form and the derived totals.
//
// Every Load and every successful mutation bumps a generation counter.
// A load whose generation is no longer current when its response arrives
// is discarded, so a slow fetch can never overwrite newer state.
type Board struct {
	api     port.EntriesAPI
	session domain.Session
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	loadTimeout time.Duration

	mu      sync.Mutex
	entries []domain.Entry
	form    domain.EntryForm
	gen     uint64
	loaded  bool

	loads singleflight.Group
}

// NewBoard creates an empty board for sess.
func NewBoard(api port.EntriesAPI, sess domain.Session, metrics *observability.Metrics, logger *zap.Logger) *Board {
	b := &Board{
		api:     api,
		session: sess,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
		entries: []domain.Entry{},

		loadTimeout: DefaultLoadTimeout,
	}
	b.form = domain.DefaultEntryForm(b.now())
	return b
}

// WithClock overrides the clock used for the form's default date.
func (b *Board) WithClock(now func() time.Time) *Board {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	b.form = domain.DefaultEntryForm(now())
	return b
}

// WithLoadTimeout bounds each shared load. Non-positive values keep the default.
func (b *Board) WithLoadTimeout(d time.Duration) *Board {
	if d > 0 {
		b.loadTimeout = d
	}
	return b
}

// ============================================================
// Load: GET /api/entries
// ============================================================

// Load replaces the entry list with the backend's. Concurrent calls share
// one request. On failure the list becomes empty and the error is returned.
//
// The shared request runs detached from the callers' cancellation, bounded
// by the load timeout. A caller whose ctx ends stops waiting and gets
// ctx.Err(); the others still receive the result.
func (b *Board) Load(ctx context.Context) error {
	ch := b.loads.DoChan("load", func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.loadTimeout)
		defer cancel()
		return nil, b.load(flightCtx)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Board) load(ctx context.Context) error {
	ctx, span := boardTracer.Start(ctx, "Board.Load")
	defer span.End()

	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	entries, err := b.api.ListEntries(ctx, b.session.Token)

	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.gen {
		b.metrics.IncrStaleLoad()
		b.logger.Debug("discarding stale entry load", zap.Uint64("generation", gen))
		return nil
	}

	b.loaded = true
	if err != nil {
		b.entries = []domain.Entry{}
		b.metrics.SetEntriesLoaded(0)
		b.logger.Warn("failed to load entries", zap.Error(err))
		return err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	b.entries = entries
	b.metrics.SetEntriesLoaded(len(entries))
	span.SetAttributes(attribute.Int("entries.count", len(entries)))
	return nil
}

// EnsureLoaded loads once. Later calls are no-ops until Load is called again.
func (b *Board) EnsureLoaded(ctx context.Context) error {
	b.mu.Lock()
	loaded := b.loaded
	b.mu.Unlock()
	if loaded {
		return nil
	}
	return b.Load(ctx)
}

// Entries returns a copy of the list in backend order.
func (b *Board) Entries() []domain.Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Totals derives credit, debit and balance from the current list.
func (b *Board) Totals() domain.Totals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.DeriveTotals(b.entries)
}

// Form returns the add-entry form fields.
func (b *Board) Form() domain.EntryForm {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.form
}

// SetForm replaces the add-entry form fields.
func (b *Board) SetForm(form domain.EntryForm) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = form
}

// ============================================================
// Add: POST /api/entries
// ============================================================

// Add submits the current form. An invalid form makes no backend call and
// is left untouched. Once the backend has been called the form resets,
// whether or not the create succeeded.
func (b *Board) Add(ctx context.Context) (*domain.Entry, error) {
	ctx, span := boardTracer.Start(ctx, "Board.Add")
	defer span.End()

	b.mu.Lock()
	form := b.form
	b.mu.Unlock()

	input, err := form.Validate()
	if err != nil {
		return nil, err
	}

	created, err := b.api.CreateEntry(ctx, b.session.Token, input)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.form = domain.DefaultEntryForm(b.now())

	if err != nil {
		b.logger.Warn("failed to create entry", zap.Error(err))
		return nil, err
	}

	b.entries = append([]domain.Entry{*created}, b.entries...)
	b.gen++
	b.metrics.SetEntriesLoaded(len(b.entries))
	span.SetAttributes(attribute.String("entry.id", created.ID))
	return created, nil
}

// ============================================================
// Delete: DELETE /api/entries/:id
// ============================================================

// Delete removes an entry by id. The list is only changed after the
// backend confirms, and then only the first match is dropped; the
// remaining entries keep their order.
func (b *Board) Delete(ctx context.Context, id string) error {
	ctx, span := boardTracer.Start(ctx, "Board.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", id))

	if err := b.api.DeleteEntry(ctx, b.session.Token, id); err != nil {
		b.logger.Warn("failed to delete entry", zap.String("id", id), zap.Error(err))
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.ID == id {
			kept := make([]domain.Entry, 0, len(b.entries)-1)
			kept = append(kept, b.entries[:i]...)
			b.entries = append(kept, b.entries[i+1:]...)
			break
		}
	}
	b.gen++
	b.metrics.SetEntriesLoaded(len(b.entries))
	return nil
}

// Dashboard snapshots everything the dashboard view shows.
func (b *Board) Dashboard() *domain.Dashboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]domain.Entry, len(b.entries))
	copy(entries, b.entries)
	return &domain.Dashboard{
		Username: b.session.Username,
		Greeting: b.session.Greeting(),
		Totals:   domain.DeriveTotals(entries),
		Entries:  entries,
	}
}
