package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

// AdminHandler lists every withdrawal request and forwards status changes.
// Transition legality is left to the withdrawal service.
type AdminHandler struct {
	api      API
	sessions *session.Manager
	views    Renderer
	logger   *zap.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(api API, sessions *session.Manager, views Renderer, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{api: api, sessions: sessions, views: views, logger: logger}
}

// Register attaches the admin routes. The router must apply RequireSession and RequireAdmin.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/admin", h.show)
	r.Post("/admin/withdrawals/{id}", h.handleUpdate)
}

func (h *AdminHandler) load(w http.ResponseWriter, r *http.Request, s session.Session) view.AdminPage {
	page := view.AdminPage{Base: pageBase(h.sessions, w, r, "Admin")}
	list, err := h.api.ListWithdrawals(r.Context(), s.User.ID)
	if err != nil {
		page.Notify(failure("Failed to load requests", apiclient.UserMessage(err, "Could not load withdrawal requests")))
		return page
	}
	counts := models.CountByStatus(list.Requests)
	page.Requests = list.Requests
	page.Pending = counts[models.WithdrawalPending]
	page.Approved = counts[models.WithdrawalApproved]
	return page
}

func (h *AdminHandler) show(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	h.views.Render(w, http.StatusOK, view.PageAdmin, h.load(w, r, s))
}

func (h *AdminHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	_ = r.ParseForm()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.sessions.SetFlash(w, failure("Update failed", "Unknown request"))
		redirect(w, r, "/admin")
		return
	}
	action, err := models.ParseWithdrawalAction(r.PostFormValue("action"))
	if err != nil {
		h.sessions.SetFlash(w, failure("Update failed", "Unknown action"))
		redirect(w, r, "/admin")
		return
	}
	comment := strings.TrimSpace(r.PostFormValue("admin_comment"))

	_, err = h.api.UpdateWithdrawal(r.Context(), s.User.ID, dto.UpdateWithdrawalRequest{
		RequestID:    id,
		Status:       action.TargetStatus(),
		AdminComment: comment,
	})
	if err != nil {
		h.logger.Warn("withdrawal update rejected",
			zap.Int64("request_id", id),
			zap.String("action", string(action)),
			zap.Error(err))
		page := h.load(w, r, s)
		page.Notify(failure("Update failed", apiclient.UserMessage(err, "Could not update the request")))
		page.Comments = map[int64]string{id: comment}
		h.views.Render(w, failureStatus(err), view.PageAdmin, page)
		return
	}

	h.logger.Info("withdrawal status changed",
		zap.Int64("request_id", id),
		zap.Int64("admin_id", s.User.ID),
		zap.String("status", string(action.TargetStatus())))
	h.sessions.SetFlash(w, success("Status updated", action.TargetStatus().Label()))
	redirect(w, r, "/admin")
}
