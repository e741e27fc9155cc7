package dto

import "github.com/hongminglow/earn-portal/internal/models"

// CreateWithdrawalRequest is sent when a user asks for a payout.
// Amount travels as a JSON number.
type CreateWithdrawalRequest struct {
	Amount         float64              `json:"amount"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	PaymentDetails string               `json:"payment_details"`
}

// UpdateWithdrawalRequest asks the server to move a request to Status.
type UpdateWithdrawalRequest struct {
	RequestID    int64                   `json:"request_id"`
	Status       models.WithdrawalStatus `json:"status"`
	AdminComment string                  `json:"admin_comment"`
}

// WithdrawalListResponse lists the caller's requests, or every request for admins.
type WithdrawalListResponse struct {
	Requests []models.WithdrawalRequest `json:"requests"`
	IsAdmin  bool                       `json:"is_admin"`
	Error    string                     `json:"error,omitempty"`
}

// MutationResponse is the reply to create and update calls.
type MutationResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	RequestID int64  `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
