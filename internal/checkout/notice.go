package checkout

import "bistro-checkout/internal/model"

// Notice codes.
const (
	NoticeRedemptionAdjusted = "REDEMPTION_ADJUSTED"
	NoticeDegraded           = "DEGRADED"
	NoticeOrderPlaced        = "ORDER_PLACED"
)

const maxNotices = 20

// Notice is a non-blocking message shown to the customer.
type Notice struct {
	Code     string              `json:"code"`
	Category model.ErrorCategory `json:"category,omitempty"`
	Message  string              `json:"message"`
}
