package handlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/auth"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

type stubAPI struct {
	statsErr  error
	stats     models.ReferralStats
	updateErr error
	updates   []dto.UpdateWithdrawalRequest
	creates   int
}

func (s *stubAPI) Login(context.Context, string, string) (dto.AuthResponse, error) {
	return dto.AuthResponse{}, &apiclient.APIError{Op: "auth.login", Status: http.StatusUnauthorized, Message: "Invalid email or password"}
}

func (s *stubAPI) Register(context.Context, string, string, string, string) (dto.AuthResponse, error) {
	return dto.AuthResponse{}, fmt.Errorf("not used")
}

func (s *stubAPI) ReferralStats(context.Context, int64) (models.ReferralStats, error) {
	return s.stats, s.statsErr
}

func (s *stubAPI) ListWithdrawals(context.Context, int64) (dto.WithdrawalListResponse, error) {
	return dto.WithdrawalListResponse{}, nil
}

func (s *stubAPI) CreateWithdrawal(context.Context, int64, dto.CreateWithdrawalRequest) (dto.MutationResponse, error) {
	s.creates++
	return dto.MutationResponse{Success: true}, nil
}

func (s *stubAPI) UpdateWithdrawal(_ context.Context, _ int64, req dto.UpdateWithdrawalRequest) (dto.MutationResponse, error) {
	s.updates = append(s.updates, req)
	if s.updateErr != nil {
		return dto.MutationResponse{}, s.updateErr
	}
	return dto.MutationResponse{Success: true}, nil
}

type rendered struct {
	status int
	page   string
	data   any
}

type recordingRenderer struct {
	calls []rendered
}

func (r *recordingRenderer) Render(w http.ResponseWriter, status int, page string, data any) {
	r.calls = append(r.calls, rendered{status: status, page: page, data: data})
	w.WriteHeader(status)
}

func (r *recordingRenderer) last(t *testing.T) rendered {
	t.Helper()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func newSessions() *session.Manager {
	return session.NewManager(auth.NewTokenManager("handlers-secret", "earn-portal"), time.Hour, false)
}

func withSession(r *http.Request, user models.User) *http.Request {
	return r.WithContext(session.WithSession(r.Context(), session.Session{Token: "tok", User: user}))
}

func TestValidateWithdrawal(t *testing.T) {
	user := models.User{ID: 7, Balance: decimal.NewFromInt(100)}

	cases := []struct {
		name    string
		amount  string
		method  string
		details string
		want    string
	}{
		{"not a number", "abc", "card", "4111", "Enter a valid amount"},
		{"zero", "0", "card", "4111", "Enter a valid amount"},
		{"negative", "-5", "card", "4111", "Enter a valid amount"},
		{"over balance", "100.01", "card", "4111", "Insufficient funds"},
		{"unknown method", "10", "cash", "4111", "Choose a payment method"},
		{"missing details", "10", "card", "", "Enter payment details"},
		{"whole balance", "100", "crypto", "wallet", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, msg := validateWithdrawal(user, tc.amount, tc.method, tc.details)
			assert.Equal(t, tc.want, msg)
			if tc.want == "" {
				assert.Equal(t, float64(100), req.Amount)
				assert.Equal(t, models.PaymentCrypto, req.PaymentMethod)
				assert.Equal(t, "wallet", req.PaymentDetails)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	assert.Equal(t, "Fill in all fields", validateRegistration("", "a@b.c", "secret"))
	assert.Equal(t, "Fill in all fields", validateRegistration("neo", "a@b.c", ""))
	assert.Equal(t, "Password must be at least 6 characters", validateRegistration("neo", "a@b.c", "12345"))
	assert.Equal(t, "", validateRegistration("neo", "a@b.c", "123456"))
	// runes, not bytes
	assert.Equal(t, "", validateRegistration("neo", "a@b.c", "пароль"))
}

func TestFailureStatus(t *testing.T) {
	transport := &apiclient.TransportError{Op: "auth.login", Err: fmt.Errorf("dial tcp: refused")}
	assert.Equal(t, http.StatusBadGateway, failureStatus(transport))
	assert.Equal(t, http.StatusBadGateway, failureStatus(fmt.Errorf("wrapped: %w", transport)))
	assert.Equal(t, http.StatusUnprocessableEntity, failureStatus(&apiclient.APIError{Op: "withdrawals.create", Status: 400, Message: "Insufficient funds"}))
}

func TestReferralLink(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://portal.local:8080/dashboard", nil)
	assert.Equal(t, "https://earn.example.com/register?ref=REF00001", referralLink("https://earn.example.com", r, "REF00001"))
	assert.Equal(t, "http://portal.local:8080/register?ref=A%26B", referralLink("", r, "A&B"))

	r.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://portal.local:8080/register?ref=X", referralLink("", r, "X"))

	r.TLS = nil
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://portal.local:8080/register?ref=X", referralLink("", r, "X"))
}

func TestDashboardFallsBackToSessionUser(t *testing.T) {
	api := &stubAPI{statsErr: &apiclient.TransportError{Op: "referrals.stats", Err: fmt.Errorf("timeout")}}
	views := &recordingRenderer{}
	h := NewDashboardHandler(api, newSessions(), views, zap.NewNop(), "https://earn.example.com")

	user := models.User{ID: 3, Username: "ann", ReferralCode: "REF00003", Balance: decimal.NewFromInt(42)}
	rec := httptest.NewRecorder()
	h.show(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), user))

	call := views.last(t)
	assert.Equal(t, http.StatusOK, call.status)
	page, ok := call.data.(view.DashboardPage)
	require.True(t, ok)
	require.NotNil(t, page.Flash)
	assert.Equal(t, session.FlashDestructive, page.Flash.Variant)
	assert.Equal(t, apiclient.ConnectionMessage, page.Flash.Description)
	assert.True(t, page.Stats.User.Balance.Equal(decimal.NewFromInt(42)))
	assert.Equal(t, "https://earn.example.com/register?ref=REF00003", page.ReferralLink)
	assert.Len(t, page.Levels, 5)
	// no session refresh on failure
	assert.Empty(t, rec.Result().Cookies())
}

func TestDashboardRefreshKeepsAdminFlag(t *testing.T) {
	fresh := models.User{ID: 3, Username: "ann", ReferralCode: "REF00003", Balance: decimal.NewFromInt(90)}
	api := &stubAPI{stats: models.ReferralStats{User: fresh}}
	views := &recordingRenderer{}
	h := NewDashboardHandler(api, newSessions(), views, zap.NewNop(), "")

	rec := httptest.NewRecorder()
	h.show(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), models.User{ID: 3, IsAdmin: true}))

	page := views.last(t).data.(view.DashboardPage)
	require.NotNil(t, page.User)
	assert.True(t, page.User.IsAdmin)
	assert.True(t, page.User.Balance.Equal(decimal.NewFromInt(90)))

	names := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[session.UserCookie])
}

func TestWithdrawValidationSkipsCreate(t *testing.T) {
	api := &stubAPI{}
	views := &recordingRenderer{}
	h := NewWithdrawHandler(api, newSessions(), views, zap.NewNop())

	form := url.Values{"amount": {"500"}, "payment_method": {"card"}, "payment_details": {"4111"}}
	req := httptest.NewRequest(http.MethodPost, "/withdraw", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.handleCreate(rec, withSession(req, models.User{ID: 1, Balance: decimal.NewFromInt(10)}))

	assert.Equal(t, 0, api.creates)
	call := views.last(t)
	assert.Equal(t, http.StatusUnprocessableEntity, call.status)
	page := call.data.(view.WithdrawPage)
	assert.Equal(t, "500", page.Amount)
	assert.Equal(t, "Insufficient funds", page.Flash.Description)
}

func adminRequest(t *testing.T, id, action, comment string) *http.Request {
	t.Helper()
	form := url.Values{"action": {action}, "admin_comment": {comment}}
	req := httptest.NewRequest(http.MethodPost, "/admin/withdrawals/"+id, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	return withSession(req, models.User{ID: 1, IsAdmin: true})
}

func TestAdminUpdateForwardsTargetStatus(t *testing.T) {
	cases := map[string]models.WithdrawalStatus{
		"approve":  models.WithdrawalApproved,
		"reject":   models.WithdrawalRejected,
		"complete": models.WithdrawalCompleted,
	}
	for action, want := range cases {
		t.Run(action, func(t *testing.T) {
			api := &stubAPI{}
			h := NewAdminHandler(api, newSessions(), &recordingRenderer{}, zap.NewNop())
			rec := httptest.NewRecorder()
			h.handleUpdate(rec, adminRequest(t, "12", action, "  ok  "))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/admin", rec.Header().Get("Location"))
			require.Len(t, api.updates, 1)
			assert.Equal(t, int64(12), api.updates[0].RequestID)
			assert.Equal(t, want, api.updates[0].Status)
			assert.Equal(t, "ok", api.updates[0].AdminComment)
		})
	}
}

func TestAdminUpdateRejectsBadInput(t *testing.T) {
	api := &stubAPI{}
	h := NewAdminHandler(api, newSessions(), &recordingRenderer{}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.handleUpdate(rec, adminRequest(t, "abc", "approve", ""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = httptest.NewRecorder()
	h.handleUpdate(rec, adminRequest(t, "5", "delete", ""))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	assert.Empty(t, api.updates)
}

func TestAdminUpdateFailureKeepsComment(t *testing.T) {
	api := &stubAPI{updateErr: &apiclient.APIError{Op: "withdrawals.update", Status: 400, Message: "Cannot move request from rejected to completed"}}
	views := &recordingRenderer{}
	h := NewAdminHandler(api, newSessions(), views, zap.NewNop())

	rec := httptest.NewRecorder()
	h.handleUpdate(rec, adminRequest(t, "9", "complete", "retry"))

	call := views.last(t)
	assert.Equal(t, http.StatusUnprocessableEntity, call.status)
	page := call.data.(view.AdminPage)
	assert.Equal(t, "retry", page.Comment(9))
	assert.Equal(t, "Cannot move request from rejected to completed", page.Flash.Description)
}
