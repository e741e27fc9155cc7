package view

import (
	"github.com/shopspring/decimal"

	"github.com/hongminglow/earn-portal/internal/models"
	"github.com/hongminglow/earn-portal/internal/promo"
	"github.com/hongminglow/earn-portal/internal/session"
)

// Base is shared by every page.
type Base struct {
	Title string
	Flash *session.Flash
	User  *models.User
}

// Notify attaches a notification to the page being rendered.
func (b *Base) Notify(f session.Flash) {
	b.Flash = &f
}

// IndexPage is the marketing landing page.
type IndexPage struct {
	Base
	Quote       promo.Quote
	PromoCode   string
	PromoTried  bool
	Counters    promo.Snapshot
	BuyURL      string
	PromoBuyURL string
	PromoLabel  string
	FullPrice   int
	PromoPrice  int
}

// LoginPage keeps the typed email across failed attempts.
type LoginPage struct {
	Base
	Email string
}

// RegisterPage keeps every field except the password across failed attempts.
type RegisterPage struct {
	Base
	Username     string
	Email        string
	ReferralCode string
}

// DashboardPage shows balance, referral levels and the referral link.
type DashboardPage struct {
	Base
	Stats        models.ReferralStats
	Levels       []models.LevelRow
	ReferralLink string
}

// WithdrawPage is the request form plus the user's own history.
type WithdrawPage struct {
	Base
	Balance  decimal.Decimal
	Methods  []models.PaymentMethod
	Requests []models.WithdrawalRequest
	Amount   string
	Method   string
	Details  string
}

// AdminPage lists every request with the actions its status allows.
type AdminPage struct {
	Base
	Requests []models.WithdrawalRequest
	Pending  int
	Approved int
	// Comments holds admin comments to re-fill after a failed update, keyed by request id.
	Comments map[int64]string
}

// Comment returns the preserved comment for id.
func (p AdminPage) Comment(id int64) string {
	return p.Comments[id]
}
