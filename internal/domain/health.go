package domain

// ============================================================
// Health & view API responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// View is the screen the client shows after bootstrap.
type View string

const (
	ViewAuth      View = "auth"
	ViewDashboard View = "dashboard"
)

// SessionStatus is returned by GET /v1/session.
type SessionStatus struct {
	View     View     `json:"view"`
	Mode     AuthMode `json:"mode,omitempty"`
	Error    string   `json:"error,omitempty"`
	Username string   `json:"username,omitempty"`
	Greeting string   `json:"greeting,omitempty"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
