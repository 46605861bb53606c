package domain

import "strings"

// ============================================================
// Auth request and response types (backend API contract)
// ============================================================

// SignupRequest is the body for POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthUser is the user block returned by both auth endpoints.
type AuthUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// AuthResponse is the 2xx body of signup and login.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Session is the authenticated identity persisted across restarts.
type Session struct {
	Username    string `json:"username" yaml:"current_user"`
	DisplayName string `json:"displayName" yaml:"current_user_name"`
	Token       string `json:"-" yaml:"auth_token"`
}

// SessionFromAuth builds the session persisted after a successful signup or login.
func SessionFromAuth(resp *AuthResponse) *Session {
	return &Session{
		Username:    resp.User.Username,
		DisplayName: resp.User.Name,
		Token:       resp.Token,
	}
}

// Greeting returns the dashboard greeting, preferring the display name.
func (s *Session) Greeting() string {
	name := s.DisplayName
	if name == "" {
		name = s.Username
	}
	return "Hi, " + name
}

// NormalizeUsername lower-cases and trims a username before it is sent.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// AuthMode selects which auth form is active.
type AuthMode string

const (
	AuthModeLogin  AuthMode = "login"
	AuthModeSignup AuthMode = "signup"
)

// Valid reports whether m is one of the known modes.
func (m AuthMode) Valid() bool {
	return m == AuthModeLogin || m == AuthModeSignup
}

// Credentials are the raw auth form fields. DisplayName is only used on signup.
type Credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"name,omitempty"`
}
