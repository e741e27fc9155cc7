package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownPaymentMethod is returned for a payment method outside the supported set.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// ErrUnknownAction is returned for an admin action name that maps to no status.
var ErrUnknownAction = errors.New("unknown withdrawal action")

// WithdrawalStatus is the server-owned lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

var statusLabels = map[WithdrawalStatus]string{
	WithdrawalPending:   "Under review",
	WithdrawalApproved:  "Approved",
	WithdrawalRejected:  "Rejected",
	WithdrawalCompleted: "Completed",
}

// Label is the human readable status.
func (s WithdrawalStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalRejected || s == WithdrawalCompleted
}

// Actions lists the admin actions offered for a request in this status.
// The server decides whether a transition is legal; this only drives which buttons are shown.
func (s WithdrawalStatus) Actions() []WithdrawalAction {
	switch s {
	case WithdrawalPending:
		return []WithdrawalAction{ActionApprove, ActionReject}
	case WithdrawalApproved:
		return []WithdrawalAction{ActionComplete}
	default:
		return nil
	}
}

// WithdrawalAction is an admin trigger that requests a status transition.
type WithdrawalAction string

const (
	ActionApprove  WithdrawalAction = "approve"
	ActionReject   WithdrawalAction = "reject"
	ActionComplete WithdrawalAction = "complete"
)

// ParseWithdrawalAction maps a form value onto an action.
func ParseWithdrawalAction(raw string) (WithdrawalAction, error) {
	action := WithdrawalAction(strings.ToLower(strings.TrimSpace(raw)))
	switch action {
	case ActionApprove, ActionReject, ActionComplete:
		return action, nil
	default:
		return "", ErrUnknownAction
	}
}

// TargetStatus is the status the action asks the server to move to.
func (a WithdrawalAction) TargetStatus() WithdrawalStatus {
	switch a {
	case ActionApprove:
		return WithdrawalApproved
	case ActionReject:
		return WithdrawalRejected
	case ActionComplete:
		return WithdrawalCompleted
	default:
		return ""
	}
}

// Label is the button caption.
func (a WithdrawalAction) Label() string {
	switch a {
	case ActionApprove:
		return "Approve"
	case ActionReject:
		return "Reject"
	case ActionComplete:
		return "Mark as paid"
	default:
		return string(a)
	}
}

// PaymentMethod is the payout channel chosen by the user.
type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentQiwi     PaymentMethod = "qiwi"
	PaymentYooMoney PaymentMethod = "yoomoney"
	PaymentPayPal   PaymentMethod = "paypal"
	PaymentCrypto   PaymentMethod = "crypto"
)

// PaymentMethods is the supported set in display order.
var PaymentMethods = []PaymentMethod{PaymentCard, PaymentQiwi, PaymentYooMoney, PaymentPayPal, PaymentCrypto}

var paymentLabels = map[PaymentMethod]string{
	PaymentCard:     "Bank card",
	PaymentQiwi:     "QIWI wallet",
	PaymentYooMoney: "YooMoney",
	PaymentPayPal:   "PayPal",
	PaymentCrypto:   "Cryptocurrency",
}

// ParsePaymentMethod accepts only members of PaymentMethods.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := paymentLabels[method]; !ok {
		return "", ErrUnknownPaymentMethod
	}
	return method, nil
}

// Label is the human readable payment method.
func (m PaymentMethod) Label() string {
	if label, ok := paymentLabels[m]; ok {
		return label
	}
	return string(m)
}

// WithdrawalRequest is a payout request as listed by the withdrawal service.
// Username, Email and ProcessedByName are only filled in the admin listing.
type WithdrawalRequest struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	Username        string           `json:"username,omitempty"`
	Email           string           `json:"email,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	PaymentMethod   PaymentMethod    `json:"payment_method"`
	PaymentDetails  string           `json:"payment_details"`
	Status          WithdrawalStatus `json:"status"`
	AdminComment    string           `json:"admin_comment,omitempty"`
	CreatedAt       Timestamp        `json:"created_at"`
	ProcessedAt     *Timestamp       `json:"processed_at,omitempty"`
	ProcessedByName string           `json:"processed_by_name,omitempty"`
}

// CountByStatus tallies requests per status.
func CountByStatus(requests []WithdrawalRequest) map[WithdrawalStatus]int {
	counts := make(map[WithdrawalStatus]int, len(statusLabels))
	for _, req := range requests {
		counts[req.Status]++
	}
	return counts
}
