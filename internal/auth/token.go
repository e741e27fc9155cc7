package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hongminglow/earn-portal/internal/models"
)

// ErrInvalidToken is returned when a user token fails verification or decoding.
var ErrInvalidToken = errors.New("invalid user token")

// userClaims carries the serialized user record inside the signed cookie value.
type userClaims struct {
	User models.User `json:"user"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies the user record kept in the browser.
// Tokens carry no expiry: the session lives until logout or cookie expiry.
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager creates a manager with the provided secret and issuer.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

// Generate issues a signed JWT string holding the provided user.
func (t *TokenManager) Generate(user models.User) (string, error) {
	claims := userClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   t.issuer,
			Subject:  strconv.FormatInt(user.ID, 10),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the signature and issuer and returns the embedded user.
func (t *TokenManager) Parse(raw string) (models.User, error) {
	var claims userClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.User.ID == 0 {
		return models.User{}, fmt.Errorf("%w: missing user id", ErrInvalidToken)
	}
	return claims.User, nil
}
