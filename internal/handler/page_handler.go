package handler

import (
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/render"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"go.uber.org/zap"
)

// pageHandler serves GET /: the dashboard when signed in, otherwise the
// auth prompt. A failed entry load shows an empty list with the message.
func pageHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		view, err := app.View()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var md string
		if view == domain.ViewAuth {
			form := app.AuthForm()
			md = render.AuthMarkdown(form.Mode(), form.Error())
		} else {
			d, err := app.Dashboard(ctx)
			if d == nil {
				handleServiceError(w, err, logger)
				return
			}
			md = render.Markdown(d)
			if err != nil {
				md += "\n" + render.ErrorMarkdown(err.Error())
			}
		}

		page, err := render.HTML("Ledger", md)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(page))
	}
}
