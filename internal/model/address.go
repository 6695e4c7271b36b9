package model

// NoNumberSentinel replaces the house number when the customer flags the
// address as having none.
const NoNumberSentinel = "S/N"

// Address represents a saved customer address.
type Address struct {
	ID           int64   `json:"id"`
	Street       string  `json:"street"`
	Number       *string `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	IsDefault    bool    `json:"isDefault"`
}

// AddressInput is the manual address entry payload.
type AddressInput struct {
	Street       string  `json:"street" validate:"required"`
	Number       string  `json:"number" validate:"required_without=NoNumber"`
	NoNumber     bool    `json:"noNumber"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood" validate:"required"`
	City         string  `json:"city" validate:"required"`
	State        string  `json:"state" validate:"required,len=2,alpha"`
	PostalCode   string  `json:"postalCode" validate:"required,len=8,number"`
	IsDefault    bool    `json:"isDefault"`
}

// ResolvedNumber returns the house number to persist, collapsing the
// "no number" flag into NoNumberSentinel.
func (in AddressInput) ResolvedNumber() string {
	if in.NoNumber {
		return NoNumberSentinel
	}
	return in.Number
}
