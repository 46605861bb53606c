// Package fakebackend is an in-memory stand-in for the ledger REST
// backend, used by tests. It speaks the same wire format:
// entries carry "_id", errors are {"error": "..."} bodies.
package fakebackend

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type user struct {
	username string
	password string
	name     string
}

// Entry is the stored form of an entry.
type Entry struct {
	ID        string      `json:"_id"`
	Type      string      `json:"type"`
	Amount    json.Number `json:"amount"`
	Note      string      `json:"note"`
	Timestamp string      `json:"timestamp"`
	owner     string
}

// Backend holds users, tokens and entries in memory.
type Backend struct {
	mu      sync.Mutex
	users   map[string]user
	tokens  map[string]string // token -> username
	entries []Entry

	calls    map[string]int            // "METHOD /route" -> hits
	failNext map[string]cannedResponse // "METHOD /route" -> answer once
}

type cannedResponse struct {
	status int
	body   string // raw JSON; empty means an injected {"error"} body
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		calls:    make(map[string]int),
		failNext: make(map[string]cannedResponse),
	}
}

// AddUser registers an account directly.
func (b *Backend) AddUser(username, password, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = user{username: username, password: password, name: name}
}

// IssueToken registers a fixed token for an existing user.
func (b *Backend) IssueToken(username, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = username
}

// CallCount returns how many times a route was hit.
func (b *Backend) CallCount(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// Fail makes the next call to route answer with status.
func (b *Backend) Fail(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[route] = cannedResponse{status: status}
}

// RespondRaw makes the next call to route answer with status and the given
// JSON body, whatever its shape.
func (b *Backend) RespondRaw(route string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[route] = cannedResponse{status: status, body: body}
}

// Handler returns the HTTP surface rooted at /api.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", b.track("POST /auth/signup", b.signup))
		r.Post("/auth/login", b.track("POST /auth/login", b.login))
		r.Get("/entries", b.track("GET /entries", b.listEntries))
		r.Post("/entries", b.track("POST /entries", b.createEntry))
		r.Delete("/entries/{id}", b.track("DELETE /entries", b.deleteEntry))
	})
	return r
}

func (b *Backend) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[route]++
		canned, ok := b.failNext[route]
		delete(b.failNext, route)
		b.mu.Unlock()

		switch {
		case ok && canned.body != "":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			io.WriteString(w, canned.body)
			return
		case ok:
			writeError(w, canned.status, "injected failure")
			return
		}
		next(w, r)
	}
}

func (b *Backend) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	b.mu.Lock()
	if _, exists := b.users[req.Username]; exists {
		b.mu.Unlock()
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}
	b.users[req.Username] = user{username: req.Username, password: req.Password, name: req.Name}
	token := uuid.NewString()
	b.tokens[token] = req.Username
	b.mu.Unlock()

	writeAuth(w, http.StatusCreated, token, req.Username, req.Name)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	b.mu.Lock()
	u, ok := b.users[req.Username]
	if !ok || u.password != req.Password {
		b.mu.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token := uuid.NewString()
	b.tokens[token] = u.username
	b.mu.Unlock()

	writeAuth(w, http.StatusOK, token, u.username, u.name)
}

func (b *Backend) owner(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.tokens[token]
	return username, ok
}

func (b *Backend) listEntries(w http.ResponseWriter, r *http.Request) {
	username, ok := b.owner(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	b.mu.Lock()
	out := []Entry{}
	// newest first, matching what the client shows after an add
	for i := len(b.entries) - 1; i >= 0; i-- {
		if b.entries[i].owner == username {
			out = append(out, b.entries[i])
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createEntry(w http.ResponseWriter, r *http.Request) {
	username, ok := b.owner(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var e Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if amount, err := e.Amount.Float64(); err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be > 0")
		return
	}
	e.ID = uuid.NewString()
	e.owner = username

	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, e)
}

func (b *Backend) deleteEntry(w http.ResponseWriter, r *http.Request) {
	username, ok := b.owner(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id := chi.URLParam(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.ID == id && e.owner == username {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Entry not found")
}

func writeAuth(w http.ResponseWriter, status int, token, username, name string) {
	writeJSON(w, status, map[string]any{
		"token": token,
		"user":  map[string]string{"username": username, "name": name},
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
