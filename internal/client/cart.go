package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bistro-checkout/internal/model"
)

// cartPayload accepts the cart either as a bare item list or wrapped in an
// object under "items" or "cart".
type cartPayload struct {
	Items []model.CartItem
}

func (p *cartPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		p.Items = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.Items)
	}

	var wrapped struct {
		Items []model.CartItem `json:"items"`
		Cart  []model.CartItem `json:"cart"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.Items = wrapped.Items
	if p.Items == nil {
		p.Items = wrapped.Cart
	}
	return nil
}

// FetchCart returns the customer's current cart.
func (c *Client) FetchCart(ctx context.Context) (model.CartSnapshot, error) {
	var payload cartPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &payload); err != nil {
		return model.CartSnapshot{}, err
	}

	for i, item := range payload.Items {
		if item.Quantity < 1 {
			return model.CartSnapshot{}, fmt.Errorf("cart item %d has invalid quantity %d", i, item.Quantity)
		}
		if item.Extras == nil {
			payload.Items[i].Extras = []model.CartExtra{}
		}
		if item.BaseModifications == nil {
			payload.Items[i].BaseModifications = []model.CartModification{}
		}
	}
	return model.CartSnapshot{Items: payload.Items}, nil
}

// ClearCart empties the customer's cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil)
}
