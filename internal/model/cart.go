package model

import "github.com/shopspring/decimal"

// CartExtra is an ingredient added on top of a product.
type CartExtra struct {
	IngredientID int64           `json:"ingredientId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
}

// CartModification changes the quantity of a base ingredient. UnitPrice is
// only charged for positive deltas.
type CartModification struct {
	IngredientID int64            `json:"ingredientId"`
	Delta        int              `json:"delta"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
}

// CartItem is a line of the customer's cart. ItemSubtotal is computed by the
// server and is authoritative.
type CartItem struct {
	ProductID         int64              `json:"productId"`
	Quantity          int                `json:"quantity"`
	Extras            []CartExtra        `json:"extras"`
	BaseModifications []CartModification `json:"baseModifications"`
	Note              string             `json:"note,omitempty"`
	ItemSubtotal      decimal.Decimal    `json:"itemSubtotal"`
}

// CartSnapshot is the cart as read at checkout load.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

// IsEmpty reports whether the cart has no items.
func (c CartSnapshot) IsEmpty() bool {
	return len(c.Items) == 0
}

// IngredientIDs returns the distinct ingredient ids referenced by extras and
// base modifications, in first-seen order.
func (c CartSnapshot) IngredientIDs() []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, item := range c.Items {
		for _, extra := range item.Extras {
			add(extra.IngredientID)
		}
		for _, mod := range item.BaseModifications {
			add(mod.IngredientID)
		}
	}
	return ids
}

// IngredientPrice is the reference price of an ingredient.
type IngredientPrice struct {
	IngredientID int64           `json:"ingredientId"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Unit         string          `json:"unit"`
}
