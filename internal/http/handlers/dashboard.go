package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

// DashboardHandler shows balance, referral statistics and the referral link.
type DashboardHandler struct {
	api      API
	sessions *session.Manager
	views    Renderer
	logger   *zap.Logger
	baseURL  string
}

// NewDashboardHandler constructs the handler. An empty baseURL derives the link from the request.
func NewDashboardHandler(api API, sessions *session.Manager, views Renderer, logger *zap.Logger, baseURL string) *DashboardHandler {
	return &DashboardHandler{api: api, sessions: sessions, views: views, logger: logger, baseURL: strings.TrimRight(baseURL, "/")}
}

// Register attaches the dashboard route. The router must apply RequireSession.
func (h *DashboardHandler) Register(r chi.Router) {
	r.Get("/dashboard", h.show)
}

func (h *DashboardHandler) show(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	page := view.DashboardPage{Base: pageBase(h.sessions, w, r, "Dashboard")}

	stats, err := h.api.ReferralStats(r.Context(), s.User.ID)
	if err != nil {
		page.Notify(failure("Failed to load data", apiclient.UserMessage(err, "Could not load referral statistics")))
		stats = models.ReferralStats{User: s.User}
	} else {
		refreshed, err := h.sessions.Refresh(w, s, stats.User)
		if err != nil {
			h.logger.Warn("refresh session", zap.Int64("user_id", s.User.ID), zap.Error(err))
		}
		stats.User = refreshed.User
		page.User = &refreshed.User
	}

	page.Stats = stats
	page.Levels = stats.Levels.Ordered()
	page.ReferralLink = referralLink(h.baseURL, r, stats.User.ReferralCode)
	h.views.Render(w, http.StatusOK, view.PageDashboard, page)
}

// referralLink builds <base>/register?ref=<code>.
func referralLink(baseURL string, r *http.Request, code string) string {
	if baseURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		baseURL = scheme + "://" + r.Host
	}
	return baseURL + "/register?ref=" + url.QueryEscape(code)
}
