package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

// WithdrawHandler serves the withdrawal form and the user's request history.
type WithdrawHandler struct {
	api      API
	sessions *session.Manager
	views    Renderer
	logger   *zap.Logger
}

// NewWithdrawHandler constructs the handler.
func NewWithdrawHandler(api API, sessions *session.Manager, views Renderer, logger *zap.Logger) *WithdrawHandler {
	return &WithdrawHandler{api: api, sessions: sessions, views: views, logger: logger}
}

// Register attaches the withdrawal routes. The router must apply RequireSession.
func (h *WithdrawHandler) Register(r chi.Router) {
	r.Get("/withdraw", h.show)
	r.Post("/withdraw", h.handleCreate)
}

func (h *WithdrawHandler) newPage(w http.ResponseWriter, r *http.Request, s session.Session) view.WithdrawPage {
	return view.WithdrawPage{
		Base:    pageBase(h.sessions, w, r, "Withdraw"),
		Balance: s.User.Balance,
		Methods: models.PaymentMethods,
	}
}

// loadRequests fills the history table; a failed load leaves it empty and notifies the user.
func (h *WithdrawHandler) loadRequests(r *http.Request, s session.Session, page *view.WithdrawPage) {
	list, err := h.api.ListWithdrawals(r.Context(), s.User.ID)
	if err != nil {
		if page.Flash == nil {
			page.Notify(failure("Failed to load requests", apiclient.UserMessage(err, "Could not load your withdrawal requests")))
		}
		return
	}
	page.Requests = list.Requests
}

func (h *WithdrawHandler) show(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	page := h.newPage(w, r, s)
	h.loadRequests(r, s, &page)
	h.views.Render(w, http.StatusOK, view.PageWithdraw, page)
}

func (h *WithdrawHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	_ = r.ParseForm()

	page := h.newPage(w, r, s)
	page.Amount = strings.TrimSpace(r.PostFormValue("amount"))
	page.Method = strings.TrimSpace(r.PostFormValue("payment_method"))
	page.Details = strings.TrimSpace(r.PostFormValue("payment_details"))

	req, msg := validateWithdrawal(s.User, page.Amount, page.Method, page.Details)
	if msg != "" {
		page.Notify(failure("Withdrawal not sent", msg))
		h.loadRequests(r, s, &page)
		h.views.Render(w, http.StatusUnprocessableEntity, view.PageWithdraw, page)
		return
	}

	resp, err := h.api.CreateWithdrawal(r.Context(), s.User.ID, req)
	if err != nil {
		page.Notify(failure("Withdrawal not sent", apiclient.UserMessage(err, "Could not create the request")))
		h.loadRequests(r, s, &page)
		h.views.Render(w, failureStatus(err), view.PageWithdraw, page)
		return
	}

	h.logger.Info("withdrawal requested",
		zap.Int64("user_id", s.User.ID),
		zap.Int64("request_id", resp.RequestID),
		zap.String("method", string(req.PaymentMethod)))
	h.sessions.SetFlash(w, success("Request created", "It will be reviewed by an administrator"))
	redirect(w, r, "/withdraw")
}

// validateWithdrawal checks the form against the known balance before any request is sent.
func validateWithdrawal(user models.User, rawAmount, rawMethod, details string) (dto.CreateWithdrawalRequest, string) {
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil || !amount.IsPositive() {
		return dto.CreateWithdrawalRequest{}, "Enter a valid amount"
	}
	if !user.CanWithdraw(amount) {
		return dto.CreateWithdrawalRequest{}, "Insufficient funds"
	}
	method, err := models.ParsePaymentMethod(rawMethod)
	if err != nil {
		return dto.CreateWithdrawalRequest{}, "Choose a payment method"
	}
	if details == "" {
		return dto.CreateWithdrawalRequest{}, "Enter payment details"
	}
	return dto.CreateWithdrawalRequest{
		Amount:         amount.InexactFloat64(),
		PaymentMethod:  method,
		PaymentDetails: details,
	}, ""
}
