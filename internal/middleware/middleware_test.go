package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/earn-portal/internal/auth"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/session"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://portal.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/social-proof", nil)
	req.Header.Set("Origin", "https://PORTAL.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://PORTAL.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-User-Id")

	req = httptest.NewRequest(http.MethodGet, "/api/social-proof", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/promo", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
}

func TestLoggingLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(404), entries[0].ContextMap()["status"])
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := Recoverer(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, logs.Len())
}

type routeObserver struct {
	route  string
	status int
}

func (o *routeObserver) ObserveHTTP(route, _ string, status int, _ time.Duration) {
	o.route, o.status = route, status
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &routeObserver{}
	r := chi.NewRouter()
	r.Use(Metrics(obs))
	r.Post("/admin/withdrawals/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/admin/withdrawals/17", nil))
	assert.Equal(t, "/admin/withdrawals/{id}", obs.route)
	assert.Equal(t, http.StatusSeeOther, obs.status)
}

func guardedRequest(t *testing.T, sessions *session.Manager, user *models.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if user == nil {
		return req
	}
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Save(rec, session.Session{Token: "tok", User: *user}))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestGuards(t *testing.T) {
	sessions := session.NewManager(auth.NewTokenManager("secret", "earn-portal"), time.Hour, false)
	chain := RequireSession(sessions)(RequireAdmin(sessions)(okHandler))

	t.Run("anonymous goes to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, guardedRequest(t, sessions, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("non-admin goes to dashboard with notice", func(t *testing.T) {
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, guardedRequest(t, sessions, &models.User{ID: 2, Email: "u@x.y"}))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		var flash *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == session.FlashCookie {
				flash = c
			}
		}
		require.NotNil(t, flash)
	})

	t.Run("admin passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, guardedRequest(t, sessions, &models.User{ID: 1, IsAdmin: true}))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
