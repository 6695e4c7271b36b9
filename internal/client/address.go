package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bistro-checkout/internal/model"
)

type addressListPayload struct {
	Addresses []model.Address
}

func (p *addressListPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.Addresses)
	}
	var wrapped struct {
		Addresses []model.Address `json:"addresses"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.Addresses = wrapped.Addresses
	return nil
}

// addressRequest is the body of address create and update calls.
type addressRequest struct {
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	IsDefault    bool    `json:"isDefault"`
}

func newAddressRequest(in model.AddressInput) addressRequest {
	return addressRequest{
		Street:       in.Street,
		Number:       in.ResolvedNumber(),
		Complement:   in.Complement,
		Neighborhood: in.Neighborhood,
		City:         in.City,
		State:        in.State,
		PostalCode:   in.PostalCode,
		IsDefault:    in.IsDefault,
	}
}

// FetchAddresses lists the customer's saved addresses.
func (c *Client) FetchAddresses(ctx context.Context) ([]model.Address, error) {
	var payload addressListPayload
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Addresses == nil {
		return []model.Address{}, nil
	}
	return payload.Addresses, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, in model.AddressInput) (model.Address, error) {
	var created model.Address
	if err := c.do(ctx, http.MethodPost, "/addresses", newAddressRequest(in), &created); err != nil {
		return model.Address{}, err
	}
	if created.ID <= 0 {
		return model.Address{}, fmt.Errorf("created address has invalid id %d", created.ID)
	}
	return created, nil
}

// UpdateAddress replaces address id.
func (c *Client) UpdateAddress(ctx context.Context, id int64, in model.AddressInput) (model.Address, error) {
	var updated model.Address
	path := fmt.Sprintf("/addresses/%d", id)
	if err := c.do(ctx, http.MethodPut, path, newAddressRequest(in), &updated); err != nil {
		return model.Address{}, err
	}
	if updated.ID == 0 {
		updated.ID = id
	}
	return updated, nil
}

// SetDefaultAddress marks address id as the default.
func (c *Client) SetDefaultAddress(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/addresses/%d/default", id), nil, nil)
}
