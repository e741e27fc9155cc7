package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/metrics"
	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/models/dto"
)

// UserIDHeader identifies the caller to the referral and withdrawal services.
const UserIDHeader = "X-User-Id"

const maxResponseBytes = 4 << 20

// Endpoints are the absolute URLs of the three remote services.
type Endpoints struct {
	Auth        string
	Referrals   string
	Withdrawals string
}

// Observer receives one sample per remote call.
type Observer interface {
	ObserveUpstream(operation, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveUpstream(string, string, time.Duration) {}

// Client is a typed client for the auth, referral and withdrawal services.
// It never retries; every call runs once on the caller's context.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	logger    *zap.Logger
	observer  Observer
}

// New creates a client. A nil observer disables upstream metrics.
func New(endpoints Endpoints, httpClient *http.Client, logger *zap.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Client{endpoints: endpoints, http: httpClient, logger: logger, observer: observer}
}

// Login exchanges credentials for an API token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (dto.AuthResponse, error) {
	return c.authenticate(ctx, "auth.login", dto.AuthRequest{
		Action:   dto.ActionLogin,
		Email:    email,
		Password: password,
	})
}

// Register creates an account, optionally attached to the referrer owning referralCode.
func (c *Client) Register(ctx context.Context, email, username, password, referralCode string) (dto.AuthResponse, error) {
	return c.authenticate(ctx, "auth.register", dto.AuthRequest{
		Action:       dto.ActionRegister,
		Email:        email,
		Username:     username,
		Password:     password,
		ReferralCode: referralCode,
	})
}

func (c *Client) authenticate(ctx context.Context, op string, req dto.AuthRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	complete := func() error {
		if out.Token == "" || out.User.ID == 0 {
			return &APIError{Op: op, Status: http.StatusOK}
		}
		return nil
	}
	if err := c.do(ctx, op, http.MethodPost, c.endpoints.Auth, 0, req, &out, complete); err != nil {
		return dto.AuthResponse{}, err
	}
	return out, nil
}

// ReferralStats returns the five-level aggregation and a fresh copy of the user record.
func (c *Client) ReferralStats(ctx context.Context, userID int64) (models.ReferralStats, error) {
	var out models.ReferralStats
	if err := c.do(ctx, "referrals.stats", http.MethodGet, c.endpoints.Referrals, userID, nil, &out, nil); err != nil {
		return models.ReferralStats{}, err
	}
	return out, nil
}

// ListWithdrawals returns the caller's requests, or every request when the caller is an admin.
func (c *Client) ListWithdrawals(ctx context.Context, userID int64) (dto.WithdrawalListResponse, error) {
	var out dto.WithdrawalListResponse
	if err := c.do(ctx, "withdrawals.list", http.MethodGet, c.endpoints.Withdrawals, userID, nil, &out, nil); err != nil {
		return dto.WithdrawalListResponse{}, err
	}
	return out, nil
}

// CreateWithdrawal submits a payout request for userID.
func (c *Client) CreateWithdrawal(ctx context.Context, userID int64, req dto.CreateWithdrawalRequest) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	if err := c.do(ctx, "withdrawals.create", http.MethodPost, c.endpoints.Withdrawals, userID, req, &out, nil); err != nil {
		return dto.MutationResponse{}, err
	}
	return out, nil
}

// UpdateWithdrawal forwards an admin status change. Legality is decided by the server.
func (c *Client) UpdateWithdrawal(ctx context.Context, adminID int64, req dto.UpdateWithdrawalRequest) (dto.MutationResponse, error) {
	var out dto.MutationResponse
	if err := c.do(ctx, "withdrawals.update", http.MethodPut, c.endpoints.Withdrawals, adminID, req, &out, nil); err != nil {
		return dto.MutationResponse{}, err
	}
	return out, nil
}

// failure is the part of every response body that signals an application error.
type failure struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one call and decodes the body into out. A non-nil check runs on the decoded
// value and its error is reported like any other application error.
func (c *Client) do(ctx context.Context, op, method, url string, userID int64, body, out any, check func() error) (err error) {
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeOK
		switch {
		case errors.Is(err, ErrTransport):
			outcome = metrics.OutcomeTransport
		case err != nil:
			outcome = metrics.OutcomeApplication
		}
		elapsed := time.Since(start)
		c.observer.ObserveUpstream(op, outcome, elapsed)
		if err != nil {
			c.logger.Warn("upstream call failed", zap.String("operation", op), zap.Duration("elapsed", elapsed), zap.Error(err))
			return
		}
		c.logger.Debug("upstream call", zap.String("operation", op), zap.Duration("elapsed", elapsed))
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(UserIDHeader, strconv.FormatInt(userID, 10))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	var f failure
	decodeErr := json.Unmarshal(raw, &f)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: f.Error}
	}
	if decodeErr != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if f.Error != "" || (f.Success != nil && !*f.Success) {
		msg := f.Error
		if msg == "" {
			msg = f.Message
		}
		return &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if check != nil {
		return check()
	}
	return nil
}
