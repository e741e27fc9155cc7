package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LevelCount is the depth of the referral chain.
const LevelCount = 5

// DefaultLevelPercentages are the commission rates the service is expected to report for depths 1..5.
// Pages render the server value, zero included; these only fill in a level key the service omitted.
var DefaultLevelPercentages = [LevelCount]float64{10, 5, 3, 2, 1}

// ReferralLevel aggregates one depth of the referral chain.
type ReferralLevel struct {
	Count      int             `json:"count"`
	Earned     decimal.Decimal `json:"earned"`
	Percentage float64         `json:"percentage"`
}

// ReferralLevels mirrors the level_1..level_5 object of the stats response.
type ReferralLevels struct {
	Level1 ReferralLevel `json:"level_1"`
	Level2 ReferralLevel `json:"level_2"`
	Level3 ReferralLevel `json:"level_3"`
	Level4 ReferralLevel `json:"level_4"`
	Level5 ReferralLevel `json:"level_5"`

	// reported marks the level keys present in the decoded response.
	reported [LevelCount]bool
}

// UnmarshalJSON decodes the level object and remembers which keys the service sent.
func (l *ReferralLevels) UnmarshalJSON(data []byte) error {
	var raw struct {
		Level1 *ReferralLevel `json:"level_1"`
		Level2 *ReferralLevel `json:"level_2"`
		Level3 *ReferralLevel `json:"level_3"`
		Level4 *ReferralLevel `json:"level_4"`
		Level5 *ReferralLevel `json:"level_5"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = ReferralLevels{}
	for i, level := range [LevelCount]*ReferralLevel{raw.Level1, raw.Level2, raw.Level3, raw.Level4, raw.Level5} {
		if level == nil {
			continue
		}
		*l.at(i) = *level
		l.reported[i] = true
	}
	return nil
}

func (l *ReferralLevels) at(i int) *ReferralLevel {
	switch i {
	case 0:
		return &l.Level1
	case 1:
		return &l.Level2
	case 2:
		return &l.Level3
	case 3:
		return &l.Level4
	default:
		return &l.Level5
	}
}

// LevelRow is a referral level paired with its depth.
type LevelRow struct {
	Depth int
	ReferralLevel
}

// Ordered returns the levels from depth 1 to depth 5. A decoded level keeps the server's percentage
// even when it is zero; levels that were never reported get DefaultLevelPercentages.
func (l ReferralLevels) Ordered() []LevelRow {
	levels := [LevelCount]ReferralLevel{l.Level1, l.Level2, l.Level3, l.Level4, l.Level5}
	rows := make([]LevelRow, 0, LevelCount)
	for i, level := range levels {
		if !l.reported[i] && level.Percentage == 0 && level.Count == 0 && level.Earned.IsZero() {
			level.Percentage = DefaultLevelPercentages[i]
		}
		rows = append(rows, LevelRow{Depth: i + 1, ReferralLevel: level})
	}
	return rows
}

// ReferralEarning is one accrual credited to the user from a referred account.
type ReferralEarning struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Level     int             `json:"level"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt Timestamp       `json:"created_at"`
}

// ReferralStats is the aggregated referral view of one user.
type ReferralStats struct {
	User                  User              `json:"user"`
	TotalReferrals        int               `json:"total_referrals"`
	TotalReferralEarnings decimal.Decimal   `json:"total_referral_earnings"`
	Levels                ReferralLevels    `json:"levels"`
	RecentReferrals       []ReferralEarning `json:"recent_referrals"`
}
