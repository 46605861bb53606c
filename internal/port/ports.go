// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service
// layer from the HTTP backend and the on-disk session.
package port

import (
	"context"

	"github.com/boddenberg/ledger-client-go/internal/domain"
)

// AuthAPI calls the backend auth endpoints.
type AuthAPI interface {
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
}

// EntriesAPI calls the backend entry endpoints on behalf of a token.
type EntriesAPI interface {
	ListEntries(ctx context.Context, token string) ([]domain.Entry, error)
	CreateEntry(ctx context.Context, token string, entry *domain.NewEntry) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, token, id string) error
}

// LedgerAPI is the whole backend surface.
type LedgerAPI interface {
	AuthAPI
	EntriesAPI
}

// SessionStore persists the current session durably.
// Load returns (nil, nil) when no session has been saved.
type SessionStore interface {
	Load() (*domain.Session, error)
	Save(s *domain.Session) error
	Clear() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
