package session

import (
	"context"
	"net/http"
	"time"

	"github.com/hongminglow/earn-portal/internal/auth"
	"github.com/hongminglow/earn-portal/internal/models"
)

// Cookie names shared with the browser.
const (
	TokenCookie = "token"
	UserCookie  = "user"
)

// Session is the client-held login state: the opaque API token and the user record.
type Session struct {
	Token string
	User  models.User
}

// Manager reads and writes the session cookies.
type Manager struct {
	tokens *auth.TokenManager
	maxAge time.Duration
	secure bool
}

// NewManager creates a cookie manager. maxAge bounds the cookie lifetime; the session itself never expires.
func NewManager(tokens *auth.TokenManager, maxAge time.Duration, secure bool) *Manager {
	return &Manager{tokens: tokens, maxAge: maxAge, secure: secure}
}

// Load returns the session carried by r. A missing token or an unverifiable user record counts as absent.
func (m *Manager) Load(r *http.Request) (Session, bool) {
	token, err := r.Cookie(TokenCookie)
	if err != nil || token.Value == "" {
		return Session{}, false
	}
	raw, err := r.Cookie(UserCookie)
	if err != nil || raw.Value == "" {
		return Session{}, false
	}
	user, err := m.tokens.Parse(raw.Value)
	if err != nil {
		return Session{}, false
	}
	return Session{Token: token.Value, User: user}, true
}

// Save persists both values after a successful login or registration.
func (m *Manager) Save(w http.ResponseWriter, s Session) error {
	signed, err := m.tokens.Generate(s.User)
	if err != nil {
		return err
	}
	m.set(w, TokenCookie, s.Token)
	m.set(w, UserCookie, signed)
	return nil
}

// Refresh replaces the stored user record with a fresher copy from the stats endpoint.
// The admin flag is kept from the current session because that endpoint does not report it.
func (m *Manager) Refresh(w http.ResponseWriter, current Session, fresh models.User) (Session, error) {
	fresh.IsAdmin = current.User.IsAdmin
	if fresh.ID == 0 {
		fresh.ID = current.User.ID
	}
	signed, err := m.tokens.Generate(fresh)
	if err != nil {
		return current, err
	}
	m.set(w, UserCookie, signed)
	current.User = fresh
	return current, nil
}

// Clear removes both values.
func (m *Manager) Clear(w http.ResponseWriter) {
	m.expire(w, TokenCookie)
	m.expire(w, UserCookie)
}

func (m *Manager) set(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) expire(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

// WithSession stores s on ctx for downstream handlers.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
