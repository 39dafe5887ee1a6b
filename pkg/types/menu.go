package types

import "github.com/shopspring/decimal"

// FoodVariation is one selectable size or preparation of a menu item.
// Its price replaces the item's base price when chosen.
type FoodVariation struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// FoodAddon is an optional extra priced on top of the item.
type FoodAddon struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// VariationSelection is the chosen variation frozen onto an order item
// so later menu edits do not rewrite history.
type VariationSelection struct {
	VariationID string          `json:"variation_id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
}

// AddonSelection is one chosen addon frozen onto an order item.
type AddonSelection struct {
	AddonID string          `json:"addon_id"`
	Title   string          `json:"title"`
	Price   decimal.Decimal `json:"price"`
}
