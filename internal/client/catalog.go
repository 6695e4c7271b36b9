package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bistro-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// FetchLoyaltyBalance returns the point balance of userID.
func (c *Client) FetchLoyaltyBalance(ctx context.Context, userID int64) (model.LoyaltyBalance, error) {
	var balance model.LoyaltyBalance
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/loyalty/%d/balance", userID), nil, &balance); err != nil {
		return model.LoyaltyBalance{}, err
	}
	if balance.Balance < 0 {
		balance.Balance = 0
	}
	return balance, nil
}

type pricesPayload struct {
	Prices []model.IngredientPrice
}

func (p *pricesPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &p.Prices)
	}
	var wrapped struct {
		Prices []model.IngredientPrice `json:"prices"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.Prices = wrapped.Prices
	return nil
}

// FetchIngredientReferencePrices returns the reference prices of ids in one
// call.
func (c *Client) FetchIngredientReferencePrices(ctx context.Context, ids []int64) ([]model.IngredientPrice, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	query := url.Values{"ids": []string{strings.Join(parts, ",")}}

	var payload pricesPayload
	if err := c.do(ctx, http.MethodGet, "/ingredients/reference-prices?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Prices, nil
}

// FetchIngredientReferencePrice returns the reference price of one ingredient.
func (c *Client) FetchIngredientReferencePrice(ctx context.Context, id int64) (model.IngredientPrice, error) {
	var price model.IngredientPrice
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ingredients/%d/reference-price", id), nil, &price); err != nil {
		return model.IngredientPrice{}, err
	}
	if price.IngredientID == 0 {
		price.IngredientID = id
	}
	return price, nil
}

type settingValue struct {
	Value decimal.Decimal `json:"value"`
}

// FetchDeliveryFee returns the system delivery fee.
func (c *Client) FetchDeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	return c.fetchSetting(ctx, "delivery-fee")
}

// FetchRedemptionRate returns how many points buy one currency unit.
func (c *Client) FetchRedemptionRate(ctx context.Context) (decimal.Decimal, error) {
	return c.fetchSetting(ctx, "redemption-rate")
}

// FetchEarnRate returns how much must be spent to earn one point.
func (c *Client) FetchEarnRate(ctx context.Context) (decimal.Decimal, error) {
	return c.fetchSetting(ctx, "earn-rate")
}

func (c *Client) fetchSetting(ctx context.Context, name string) (decimal.Decimal, error) {
	var v settingValue
	if err := c.do(ctx, http.MethodGet, "/settings/"+name, nil, &v); err != nil {
		return decimal.Zero, err
	}
	return v.Value, nil
}
