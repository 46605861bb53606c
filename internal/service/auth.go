// Package service holds the client-side flows: authentication, the
// session bootstrap and the ledger board.
package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/ledger-client-go/internal/domain"
	"github.com/boddenberg/ledger-client-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService orchestrates authentication flows.
type AuthService struct {
	api    port.AuthAPI
	store  port.SessionStore
	logger *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(api port.AuthAPI, store port.SessionStore, logger *zap.Logger) *AuthService {
	return &AuthService{
		api:    api,
		store:  store,
		logger: logger,
	}
}

// ============================================================
// Signup: POST /api/auth/signup
// ============================================================

// Signup creates an account and persists the resulting session.
// Backend errors are returned unwrapped so their text can be shown as is.
func (s *AuthService) Signup(ctx context.Context, username, password, displayName string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	req := &domain.SignupRequest{
		Username: domain.NormalizeUsername(username),
		Password: password,
		Name:     displayName,
	}
	span.SetAttributes(attribute.String("user.username", req.Username))

	resp, err := s.api.Signup(ctx, req)
	if err != nil {
		s.logger.Warn("signup failed",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		return nil, err
	}

	return s.persist(resp)
}

// ============================================================
// Login: POST /api/auth/login
// ============================================================

// Login exchanges credentials for a token and persists the session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req := &domain.LoginRequest{
		Username: domain.NormalizeUsername(username),
		Password: password,
	}
	span.SetAttributes(attribute.String("user.username", req.Username))

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		s.logger.Warn("login failed",
			zap.String("username", req.Username),
			zap.Error(err),
		)
		return nil, err
	}

	return s.persist(resp)
}

// ============================================================
// Logout
// ============================================================

// Logout clears every persisted session field.
func (s *AuthService) Logout() error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

func (s *AuthService) persist(resp *domain.AuthResponse) (*domain.Session, error) {
	sess := domain.SessionFromAuth(resp)
	if err := s.store.Save(sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.logger.Info("authenticated", zap.String("username", sess.Username))
	return sess, nil
}
