// Package apitest provides an in-memory stand-in for the auth, referral and
// withdrawal services, for tests that need the whole request flow.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
)

// Routes served by Handler.
const (
	AuthPath        = "/auth"
	ReferralsPath   = "/referrals"
	WithdrawalsPath = "/withdrawals"
)

var transitions = map[models.WithdrawalStatus][]models.WithdrawalStatus{
	models.WithdrawalPending:  {models.WithdrawalApproved, models.WithdrawalRejected},
	models.WithdrawalApproved: {models.WithdrawalCompleted},
}

type account struct {
	user     models.User
	password string
	levels   models.ReferralLevels
}

// Server is the fake. It counts calls per operation and records every accepted create and update.
type Server struct {
	mu       sync.Mutex
	accounts map[int64]*account
	requests []models.WithdrawalRequest
	nextUser int64
	nextReq  int64
	clock    time.Time

	creates []dto.CreateWithdrawalRequest
	updates []dto.UpdateWithdrawalRequest
	calls   map[string]int
}

// New returns an empty fake.
func New() *Server {
	return &Server{
		accounts: make(map[int64]*account),
		clock:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		calls:    make(map[string]int),
	}
}

// Start serves the fake on a test server and returns the endpoints to hand to apiclient.New.
func (s *Server) Start() (*httptest.Server, apiclient.Endpoints) {
	ts := httptest.NewServer(s.Handler())
	return ts, apiclient.Endpoints{
		Auth:        ts.URL + AuthPath,
		Referrals:   ts.URL + ReferralsPath,
		Withdrawals: ts.URL + WithdrawalsPath,
	}
}

// Handler routes the three services.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(AuthPath, s.handleAuth)
	mux.HandleFunc(ReferralsPath, s.handleReferrals)
	mux.HandleFunc(WithdrawalsPath, s.handleWithdrawals)
	return mux
}

// AddUser seeds an account and returns its record.
func (s *Server) AddUser(email, username, password string, balance decimal.Decimal, admin bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, username, password, balance, admin)
}

func (s *Server) addUserLocked(email, username, password string, balance decimal.Decimal, admin bool) models.User {
	s.nextUser++
	user := models.User{
		ID:           s.nextUser,
		Email:        email,
		Username:     username,
		ReferralCode: fmt.Sprintf("REF%05d", s.nextUser),
		Balance:      balance,
		TotalEarned:  balance,
		IsAdmin:      admin,
	}
	s.accounts[user.ID] = &account{user: user, password: password}
	return user
}

// SetLevels overrides the referral aggregation reported for userID.
func (s *Server) SetLevels(userID int64, levels models.ReferralLevels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[userID]; ok {
		acc.levels = levels
	}
}

// User returns the current record of userID.
func (s *Server) User(userID int64) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[userID]
	if !ok {
		return models.User{}, false
	}
	return acc.user, true
}

// Requests returns a copy of every withdrawal request in creation order.
func (s *Server) Requests() []models.WithdrawalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.WithdrawalRequest(nil), s.requests...)
}

// Creates returns the accepted create payloads in order.
func (s *Server) Creates() []dto.CreateWithdrawalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.CreateWithdrawalRequest(nil), s.creates...)
}

// Updates returns the accepted status updates in order.
func (s *Server) Updates() []dto.UpdateWithdrawalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.UpdateWithdrawalRequest(nil), s.updates...)
}

// Calls reports how many times op was invoked, accepted or not.
// Operations are named like the client metrics: "auth.login", "withdrawals.update".
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req dto.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["auth."+req.Action]++

	switch req.Action {
	case dto.ActionLogin:
		acc := s.findByEmailLocked(req.Email)
		if acc == nil || acc.password != req.Password {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeJSON(w, http.StatusOK, dto.AuthResponse{Success: true, Token: tokenFor(acc.user.ID), User: acc.user})
	case dto.ActionRegister:
		if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Username) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Fill in all fields")
			return
		}
		if s.findByEmailLocked(req.Email) != nil {
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		if referrer := s.findByCodeLocked(req.ReferralCode); referrer != nil {
			referrer.levels.Level1.Count++
		}
		user := s.addUserLocked(req.Email, req.Username, req.Password, decimal.Zero, false)
		writeJSON(w, http.StatusOK, dto.AuthResponse{Success: true, Token: tokenFor(user.ID), User: user})
	default:
		writeError(w, http.StatusBadRequest, "Unknown action")
	}
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["referrals.stats"]++

	acc, status, msg := s.callerLocked(r)
	if acc == nil {
		writeError(w, status, msg)
		return
	}

	levels := acc.levels
	total := 0
	earned := decimal.Zero
	for _, row := range levels.Ordered() {
		total += row.Count
		earned = earned.Add(row.Earned)
	}
	// the stats service does not report the admin flag
	user := acc.user
	user.IsAdmin = false
	writeJSON(w, http.StatusOK, models.ReferralStats{
		User:                  user,
		TotalReferrals:        total,
		TotalReferralEarnings: earned,
		Levels:                levels,
	})
}

func (s *Server) handleWithdrawals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, status, msg := s.callerLocked(r)
	if acc == nil {
		writeError(w, status, msg)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.calls["withdrawals.list"]++
		s.listLocked(w, acc)
	case http.MethodPost:
		s.calls["withdrawals.create"]++
		s.createLocked(w, r, acc)
	case http.MethodPut:
		s.calls["withdrawals.update"]++
		s.updateLocked(w, r, acc)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listLocked(w http.ResponseWriter, caller *account) {
	out := make([]models.WithdrawalRequest, 0, len(s.requests))
	for _, req := range s.requests {
		if caller.user.IsAdmin || req.UserID == caller.user.ID {
			if caller.user.IsAdmin {
				owner := s.accounts[req.UserID].user
				req.Username, req.Email = owner.Username, owner.Email
			}
			out = append(out, req)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if caller.user.IsAdmin && statusRank(out[i].Status) != statusRank(out[j].Status) {
			return statusRank(out[i].Status) < statusRank(out[j].Status)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	writeJSON(w, http.StatusOK, dto.WithdrawalListResponse{Requests: out, IsAdmin: caller.user.IsAdmin})
}

func (s *Server) createLocked(w http.ResponseWriter, r *http.Request, caller *account) {
	var req dto.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	amount := decimal.NewFromFloat(req.Amount)
	if !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	if req.PaymentMethod == "" || strings.TrimSpace(req.PaymentDetails) == "" {
		writeError(w, http.StatusBadRequest, "Fill in all fields")
		return
	}
	if caller.user.Balance.LessThan(amount) {
		writeError(w, http.StatusBadRequest, "Insufficient funds")
		return
	}

	s.nextReq++
	s.clock = s.clock.Add(time.Minute)
	s.requests = append(s.requests, models.WithdrawalRequest{
		ID:             s.nextReq,
		UserID:         caller.user.ID,
		Amount:         amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
		Status:         models.WithdrawalPending,
		CreatedAt:      models.Timestamp{Time: s.clock},
	})
	s.creates = append(s.creates, req)
	writeJSON(w, http.StatusOK, dto.MutationResponse{Success: true, RequestID: s.nextReq, Message: "Withdrawal request created"})
}

func (s *Server) updateLocked(w http.ResponseWriter, r *http.Request, caller *account) {
	if !caller.user.IsAdmin {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}
	var req dto.UpdateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	idx := -1
	for i := range s.requests {
		if s.requests[i].ID == req.RequestID {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "Request not found")
		return
	}
	target := &s.requests[idx]
	if !allowed(target.Status, req.Status) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cannot move request from %s to %s", target.Status, req.Status))
		return
	}
	if req.Status == models.WithdrawalCompleted {
		owner := s.accounts[target.UserID]
		if owner.user.Balance.LessThan(target.Amount) {
			writeError(w, http.StatusBadRequest, "Insufficient user funds")
			return
		}
		owner.user.Balance = owner.user.Balance.Sub(target.Amount)
	}

	s.clock = s.clock.Add(time.Minute)
	processed := models.Timestamp{Time: s.clock}
	target.Status = req.Status
	target.AdminComment = req.AdminComment
	target.ProcessedAt = &processed
	target.ProcessedByName = caller.user.Username
	s.updates = append(s.updates, req)
	writeJSON(w, http.StatusOK, dto.MutationResponse{Success: true, Message: "Status changed to " + string(req.Status)})
}

func (s *Server) callerLocked(r *http.Request) (*account, int, string) {
	raw := r.Header.Get(apiclient.UserIDHeader)
	if raw == "" {
		return nil, http.StatusUnauthorized, "Authorization required"
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, http.StatusUnauthorized, "Authorization required"
	}
	acc, ok := s.accounts[id]
	if !ok {
		return nil, http.StatusNotFound, "User not found"
	}
	return acc, 0, ""
}

func (s *Server) findByEmailLocked(email string) *account {
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Email, strings.TrimSpace(email)) {
			return acc
		}
	}
	return nil
}

func (s *Server) findByCodeLocked(code string) *account {
	if code == "" {
		return nil
	}
	for _, acc := range s.accounts {
		if acc.user.ReferralCode == code {
			return acc
		}
	}
	return nil
}

func allowed(from, to models.WithdrawalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func statusRank(s models.WithdrawalStatus) int {
	switch s {
	case models.WithdrawalPending:
		return 1
	case models.WithdrawalApproved:
		return 2
	default:
		return 3
	}
}

func tokenFor(id int64) string {
	return fmt.Sprintf("token-%d", id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
