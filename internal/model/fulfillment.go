package model

// FulfillmentMode is how the order reaches the customer.
type FulfillmentMode string

const (
	FulfillmentDelivery FulfillmentMode = "delivery"
	FulfillmentPickup   FulfillmentMode = "pickup"
)

// FulfillmentSelection is either a delivery to Address or a pickup. The zero
// value means nothing has been selected yet.
type FulfillmentSelection struct {
	Mode    FulfillmentMode `json:"mode,omitempty"`
	Address *Address        `json:"address,omitempty"`
}

// Delivery returns a delivery selection for addr.
func Delivery(addr Address) FulfillmentSelection {
	return FulfillmentSelection{Mode: FulfillmentDelivery, Address: &addr}
}

// Pickup returns a pickup selection.
func Pickup() FulfillmentSelection {
	return FulfillmentSelection{Mode: FulfillmentPickup}
}

// IsPickup reports whether the selection is a pickup.
func (f FulfillmentSelection) IsPickup() bool {
	return f.Mode == FulfillmentPickup
}

// IsResolved reports whether the selection can be submitted: pickup, or a
// delivery to an address with a positive id.
func (f FulfillmentSelection) IsResolved() bool {
	switch f.Mode {
	case FulfillmentPickup:
		return true
	case FulfillmentDelivery:
		return f.Address != nil && f.Address.ID > 0
	default:
		return false
	}
}
