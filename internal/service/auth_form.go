package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/boddenberg/ledger-client-go/internal/domain"
)

// AuthForm is the login/signup form state machine. The mode can be
// switched at any time; switching clears the displayed error.
type AuthForm struct {
	auth *AuthService

	mu         sync.Mutex
	mode       domain.AuthMode
	errMsg     string
	submitting bool
}

// NewAuthForm creates a form in login mode.
func NewAuthForm(auth *AuthService) *AuthForm {
	return &AuthForm{auth: auth, mode: domain.AuthModeLogin}
}

// Mode returns the active mode.
func (f *AuthForm) Mode() domain.AuthMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Error returns the display string of the last failed submission.
func (f *AuthForm) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// SetMode switches between login and signup and clears the error.
func (f *AuthForm) SetMode(mode domain.AuthMode) error {
	if !mode.Valid() {
		return &domain.ErrValidation{Field: "mode", Message: fmt.Sprintf("unknown mode %q", mode)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
	f.errMsg = ""
	return nil
}

// Submit runs the active mode's flow. A failure is kept as the form's
// display error and also returned. A submit while another is in flight
// is rejected with ErrSubmitting.
func (f *AuthForm) Submit(ctx context.Context, creds domain.Credentials) (*domain.Session, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, &domain.ErrSubmitting{}
	}
	f.submitting = true
	f.errMsg = ""
	mode := f.mode
	f.mu.Unlock()

	var (
		sess *domain.Session
		err  error
	)
	switch mode {
	case domain.AuthModeSignup:
		sess, err = f.auth.Signup(ctx, creds.Username, creds.Password, strings.TrimSpace(creds.DisplayName))
	default:
		sess, err = f.auth.Login(ctx, creds.Username, creds.Password)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
	if err != nil {
		f.errMsg = err.Error()
		return nil, err
	}
	return sess, nil
}

// Reset returns the form to login mode with no error.
func (f *AuthForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = domain.AuthModeLogin
	f.errMsg = ""
}
