package promo

import "strings"

const (
	// Code is the only promo code the landing page accepts.
	Code = "PROMO50"
	// BasePrice is the listed price in roubles.
	BasePrice = 690
	// DiscountedPrice is the price once Code is applied.
	DiscountedPrice = 345
)

// Quote is the price shown after a promo code submission.
type Quote struct {
	Applied   bool `json:"applied"`
	Price     int  `json:"price"`
	BasePrice int  `json:"base_price"`
}

// Apply matches code case-insensitively against Code. Surrounding whitespace is ignored,
// so a code pasted with a trailing space still applies.
func Apply(code string) Quote {
	if strings.EqualFold(strings.TrimSpace(code), Code) {
		return Quote{Applied: true, Price: DiscountedPrice, BasePrice: BasePrice}
	}
	return NoDiscount()
}

// NoDiscount is the quote shown before any code is entered.
func NoDiscount() Quote {
	return Quote{Price: BasePrice, BasePrice: BasePrice}
}
