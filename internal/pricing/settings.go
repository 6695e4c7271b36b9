package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings holds the system-wide pricing and loyalty parameters.
type Settings struct {
	// DeliveryFee is charged on every delivery order.
	DeliveryFee decimal.Decimal `json:"deliveryFee"`

	// RedemptionRate is how many points buy one currency unit of discount.
	RedemptionRate decimal.Decimal `json:"redemptionRate"`

	// EarnRate is how much currency must be spent to earn one point.
	EarnRate decimal.Decimal `json:"earnRate"`

	// MaxPointsBalance bounds any balance reported by the loyalty service.
	MaxPointsBalance int64 `json:"maxPointsBalance"`
}

// DefaultSettings returns the settings used when neither the remote API nor
// the defaults document provide values.
func DefaultSettings() Settings {
	return Settings{
		DeliveryFee:      decimal.RequireFromString("5.50"),
		RedemptionRate:   decimal.NewFromInt(100),
		EarnRate:         decimal.NewFromInt(1),
		MaxPointsBalance: 1_000_000,
	}
}

// Validate checks that the settings can drive the calculators.
func (s Settings) Validate() error {
	if s.DeliveryFee.IsNegative() {
		return fmt.Errorf("delivery fee cannot be negative: %s", s.DeliveryFee)
	}
	if !s.RedemptionRate.IsPositive() {
		return fmt.Errorf("redemption rate must be positive: %s", s.RedemptionRate)
	}
	if !s.EarnRate.IsPositive() {
		return fmt.Errorf("earn rate must be positive: %s", s.EarnRate)
	}
	if s.MaxPointsBalance < 1 {
		return fmt.Errorf("max points balance must be at least 1: %d", s.MaxPointsBalance)
	}
	return nil
}

// ClampBalance bounds a reported balance to [0, MaxPointsBalance].
func (s Settings) ClampBalance(balance int64) int64 {
	if balance < 0 {
		return 0
	}
	if s.MaxPointsBalance > 0 && balance > s.MaxPointsBalance {
		return s.MaxPointsBalance
	}
	return balance
}
