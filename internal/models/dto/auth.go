package dto

import "github.com/hongminglow/earn-portal/internal/models"

// Auth actions understood by the auth service.
const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

// AuthRequest is the single payload shape of the auth endpoint.
type AuthRequest struct {
	Action       string `json:"action"`
	Email        string `json:"email"`
	Username     string `json:"username,omitempty"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

// AuthResponse carries the opaque API token and the user record.
type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	Error   string      `json:"error,omitempty"`
}
