package models

import "github.com/shopspring/decimal"

// User is the account record returned by the auth and referral services.
type User struct {
	ID           int64           `json:"id"`
	Email        string          `json:"email"`
	Username     string          `json:"username"`
	ReferralCode string          `json:"referral_code"`
	Balance      decimal.Decimal `json:"balance"`
	TotalEarned  decimal.Decimal `json:"total_earned"`
	IsAdmin      bool            `json:"is_admin"`
}

// CanWithdraw reports whether amount is a positive value not exceeding the balance.
func (u User) CanWithdraw(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(u.Balance)
}
