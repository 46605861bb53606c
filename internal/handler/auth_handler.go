package handler

import (
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// GET /v1/session
// ============================================================

func sessionHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := app.Status()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ============================================================
// POST /v1/auth/mode
// ============================================================

type authModeRequest struct {
	Mode domain.AuthMode `json:"mode"`
}

func authModeHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authModeRequest
		if _, err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := app.AuthForm().SetMode(req.Mode); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		status, err := app.Status()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ============================================================
// POST /v1/auth/login, POST /v1/auth/signup
// ============================================================

type authResult struct {
	*domain.SessionStatus
	LoadError string `json:"loadError,omitempty"`
}

func authSubmitHandler(app *service.App, mode domain.AuthMode, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/"+string(mode))
		defer span.End()

		var creds domain.Credentials
		if _, err := decodeBody(r, &creds); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		span.SetAttributes(attribute.String("user.username", domain.NormalizeUsername(creds.Username)))

		if err := app.AuthForm().SetMode(mode); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		sess, err := app.SubmitAuth(ctx, creds)
		if sess == nil {
			handleServiceError(w, err, logger)
			return
		}

		status, serr := app.Status()
		if serr != nil {
			handleServiceError(w, serr, logger)
			return
		}

		res := authResult{SessionStatus: status}
		if err != nil {
			res.LoadError = err.Error()
		}

		code := http.StatusOK
		if mode == domain.AuthModeSignup {
			code = http.StatusCreated
		}
		writeJSON(w, code, res)
	}
}

// ============================================================
// POST /v1/auth/logout
// ============================================================

func authLogoutHandler(app *service.App, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Logout(); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "logged out"})
	}
}
