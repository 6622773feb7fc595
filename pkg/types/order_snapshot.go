package types

import "github.com/shopspring/decimal"

// OrderItemSnapshot captures an item as it was at the moment of sale.
// Orders keep these snapshots so later price edits never rewrite history.
type OrderItemSnapshot struct {
	ItemID   string          `json:"item_id"`
	Title    string          `json:"title"`
	SellerID string          `json:"seller_id"`
	Price    decimal.Decimal `json:"price"`
}

// SellerShare is one seller's slice of an order's proceeds.
type SellerShare struct {
	Earnings decimal.Decimal `json:"earnings"`
	ItemIDs  []string        `json:"item_ids"`
}

// SellerBreakdown maps sellerID to their share of an order.
type SellerBreakdown map[string]SellerShare

// BuyerInfo identifies the purchaser on an order. All fields optional:
// walk-in sales may carry only a name, or nothing at all.
type BuyerInfo struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}
