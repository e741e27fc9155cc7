package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

const minPasswordLength = 6

// AuthHandler owns the login, registration and logout pages.
// Credentials are forwarded to the auth service; nothing is checked or stored here beyond the session cookies.
type AuthHandler struct {
	api      API
	sessions *session.Manager
	views    Renderer
	logger   *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(api API, sessions *session.Manager, views Renderer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{api: api, sessions: sessions, views: views, logger: logger}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

func (h *AuthHandler) showLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.sessions.Load(r); ok {
		redirect(w, r, "/dashboard")
		return
	}
	h.views.Render(w, http.StatusOK, view.PageLogin, view.LoginPage{
		Base: pageBase(h.sessions, w, r, "Log in"),
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	page := view.LoginPage{
		Base:  pageBase(h.sessions, w, r, "Log in"),
		Email: strings.TrimSpace(r.PostFormValue("email")),
	}
	password := r.PostFormValue("password")

	if page.Email == "" || password == "" {
		page.Notify(failure("Login failed", "Enter your email and password"))
		h.views.Render(w, http.StatusUnprocessableEntity, view.PageLogin, page)
		return
	}

	resp, err := h.api.Login(r.Context(), page.Email, password)
	if err != nil {
		page.Notify(failure("Login failed", apiclient.UserMessage(err, "Invalid email or password")))
		h.views.Render(w, failureStatus(err), view.PageLogin, page)
		return
	}

	if err := h.sessions.Save(w, session.Session{Token: resp.Token, User: resp.User}); err != nil {
		h.logger.Error("save session", zap.Int64("user_id", resp.User.ID), zap.Error(err))
		page.Notify(failure("Login failed", "Could not start a session, try again"))
		h.views.Render(w, http.StatusInternalServerError, view.PageLogin, page)
		return
	}
	h.logger.Info("user logged in", zap.Int64("user_id", resp.User.ID))
	h.sessions.SetFlash(w, success("Welcome back!", "You have logged in"))
	redirect(w, r, "/dashboard")
}

func (h *AuthHandler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, view.PageRegister, view.RegisterPage{
		Base:         pageBase(h.sessions, w, r, "Sign up"),
		ReferralCode: strings.TrimSpace(r.URL.Query().Get("ref")),
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	page := view.RegisterPage{
		Base:         pageBase(h.sessions, w, r, "Sign up"),
		Username:     strings.TrimSpace(r.PostFormValue("username")),
		Email:        strings.TrimSpace(r.PostFormValue("email")),
		ReferralCode: strings.TrimSpace(r.PostFormValue("referral_code")),
	}
	password := r.PostFormValue("password")

	if msg := validateRegistration(page.Username, page.Email, password); msg != "" {
		page.Notify(failure("Registration failed", msg))
		h.views.Render(w, http.StatusUnprocessableEntity, view.PageRegister, page)
		return
	}

	resp, err := h.api.Register(r.Context(), page.Email, page.Username, password, page.ReferralCode)
	if err != nil {
		page.Notify(failure("Registration failed", apiclient.UserMessage(err, "Could not create the account")))
		h.views.Render(w, failureStatus(err), view.PageRegister, page)
		return
	}

	if err := h.sessions.Save(w, session.Session{Token: resp.Token, User: resp.User}); err != nil {
		h.logger.Error("save session", zap.Int64("user_id", resp.User.ID), zap.Error(err))
		page.Notify(failure("Registration failed", "Could not start a session, try again"))
		h.views.Render(w, http.StatusInternalServerError, view.PageRegister, page)
		return
	}
	h.logger.Info("user registered", zap.Int64("user_id", resp.User.ID), zap.Bool("referred", page.ReferralCode != ""))
	h.sessions.SetFlash(w, success("Account created!", "Welcome aboard"))
	redirect(w, r, "/dashboard")
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	h.sessions.SetFlash(w, success("Logged out", ""))
	redirect(w, r, "/login")
}

func validateRegistration(username, email, password string) string {
	if username == "" || email == "" || password == "" {
		return "Fill in all fields"
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return "Password must be at least 6 characters"
	}
	return ""
}
