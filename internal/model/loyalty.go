package model

import "time"

// LoyaltyBalance is the customer's current point balance.
type LoyaltyBalance struct {
	Balance   int64      `json:"balance"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// RedemptionRequest asks to convert loyalty points into a discount. Points is
// only meaningful while Enabled is true.
type RedemptionRequest struct {
	Enabled bool  `json:"enabled"`
	Points  int64 `json:"points"`
}
