package auth

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/earn-portal/internal/models"
)

func testUser() models.User {
	return models.User{
		ID:           42,
		Email:        "ann@example.com",
		Username:     "ann",
		ReferralCode: "ANN12345",
		Balance:      decimal.RequireFromString("500.25"),
		TotalEarned:  decimal.RequireFromString("800"),
		IsAdmin:      true,
	}
}

func TestGenerateParse(t *testing.T) {
	tokens := NewTokenManager("secret", "earn-portal")

	raw, err := tokens.Generate(testUser())
	require.NoError(t, err)

	user, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "ANN12345", user.ReferralCode)
	assert.True(t, user.Balance.Equal(decimal.RequireFromString("500.25")))
	assert.True(t, user.IsAdmin)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	raw, err := NewTokenManager("other-secret", "earn-portal").Generate(testUser())
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "earn-portal").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	raw, err := NewTokenManager("secret", "someone-else").Generate(testUser())
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "earn-portal").Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	tokens := NewTokenManager("secret", "earn-portal")
	raw, err := tokens.Generate(testUser())
	require.NoError(t, err)

	promoted := testUser()
	promoted.ID = 1
	forged, err := tokens.Generate(promoted)
	require.NoError(t, err)

	// payload of one token with the signature of another
	original := strings.Split(raw, ".")
	swapped := strings.Split(forged, ".")
	require.Len(t, original, 3)
	require.Len(t, swapped, 3)

	_, err = tokens.Parse(strings.Join([]string{original[0], swapped[1], original[2]}, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", "earn-portal").Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
