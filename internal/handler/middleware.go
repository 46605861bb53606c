package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// RequireSession rejects requests while no usable session is persisted
// and injects the session into the request context.
func RequireSession(app *service.App, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := app.Session()
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			if sess == nil {
				logger.Debug("no session",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session injected by RequireSession.
func SessionFromContext(ctx context.Context) *domain.Session {
	v, _ := ctx.Value(sessionKey).(*domain.Session)
	return v
}
