package types

import "github.com/shopspring/decimal"

// AddonSelection snapshots one addon/option choice on an ordered item.
type AddonSelection struct {
	AddonID string          `json:"addon_id"`
	Title   string          `json:"title"`
	Price   decimal.Decimal `json:"price"`
}

// VariationSelection snapshots the chosen variation of an ordered item.
type VariationSelection struct {
	VariationID string          `json:"variation_id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
}

// FoodVariation is one sellable variation inside a menu item snapshot.
type FoodVariation struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// FoodAddon is one optional addon inside a menu item snapshot.
type FoodAddon struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}
