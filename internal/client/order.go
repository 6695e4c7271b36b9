package client

import (
	"context"
	"errors"
	"net/http"

	"bistro-checkout/internal/model"
)

// SubmitOrder places an order built from draft and the live cart.
func (c *Client) SubmitOrder(ctx context.Context, draft model.OrderDraft) (model.OrderConfirmation, error) {
	var confirmation model.OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/orders", draft, &confirmation); err != nil {
		return model.OrderConfirmation{}, err
	}
	if confirmation.OrderID <= 0 {
		return model.OrderConfirmation{}, &model.MalformedResponseError{
			Op:  "POST /orders",
			Err: errors.New("order response is missing the order id"),
		}
	}
	return confirmation, nil
}
