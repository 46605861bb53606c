package handler

import (
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type dashboardResponse struct {
	*domain.Dashboard
	LoadError string `json:"loadError,omitempty"`
}

// ============================================================
// GET /v1/dashboard
// ============================================================

// A failed first load still answers 200: the dashboard shows an empty list
// and the failure is reported in loadError.
func dashboardHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		d, err := app.Dashboard(ctx)
		if d == nil {
			handleServiceError(w, err, logger)
			return
		}

		res := dashboardResponse{Dashboard: d}
		if err != nil {
			logger.Warn("dashboard load failed", zap.Error(err))
			res.LoadError = err.Error()
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ============================================================
// POST /v1/entries/refresh
// ============================================================

func refreshEntriesHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/entries/refresh")
		defer span.End()

		board, err := app.Board(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := board.Load(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, board.Dashboard())
	}
}

// ============================================================
// GET|PUT /v1/entries/form
// ============================================================

func getEntryFormHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := app.Board(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, board.Form())
	}
}

func putEntryFormHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := app.Board(r.Context())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var form domain.EntryForm
		if _, err := decodeBody(r, &form); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		board.SetForm(form)
		writeJSON(w, http.StatusOK, board.Form())
	}
}

// ============================================================
// POST /v1/entries
// ============================================================

// createEntryHandler submits the stored form. A request body, when
// present, replaces the form first.
func createEntryHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/entries")
		defer span.End()

		board, err := app.Board(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var form domain.EntryForm
		present, err := decodeBody(r, &form)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if present {
			board.SetForm(form)
		}

		entry, err := board.Add(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("entry.id", entry.ID))

		if sess := SessionFromContext(ctx); sess != nil {
			logger.Info("entry created",
				zap.String("username", sess.Username),
				zap.String("entry_id", entry.ID),
				zap.String("type", string(entry.Type)),
			)
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// ============================================================
// DELETE /v1/entries/{entryId}
// ============================================================

func deleteEntryHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/entries/{entryId}")
		defer span.End()

		entryID := chi.URLParam(r, "entryId")
		if entryID == "" {
			writeError(w, http.StatusBadRequest, "entry id is required")
			return
		}
		span.SetAttributes(attribute.String("entry.id", entryID))

		board, err := app.Board(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := board.Delete(ctx, entryID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
