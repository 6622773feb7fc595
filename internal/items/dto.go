package items

import (
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// SubmitInput captures a seller's item submission.
type SubmitInput struct {
	SellerID      string
	Title         string
	Description   string
	Category      enums.ItemCategory
	Condition     enums.ItemCondition
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Images        []string
}

// UpdateInput carries a seller's partial edit. Nil fields are untouched.
type UpdateInput struct {
	Title         *string
	Description   *string
	Category      *enums.ItemCategory
	Condition     *enums.ItemCondition
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Images        []string
}

// ApproveInput carries the admin approval decision. Barcode is
// generated when absent.
type ApproveInput struct {
	ItemID  string
	Actor   Actor
	Barcode *string
}

// RejectInput carries the admin rejection decision.
type RejectInput struct {
	ItemID string
	Actor  Actor
	Reason string
}

// ListFilter narrows the admin review queue.
type ListFilter struct {
	Status   *enums.ItemStatus
	SellerID *string
	Limit    int
}
