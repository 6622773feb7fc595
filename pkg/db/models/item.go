package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// Item is a single consigned physical good tracked through its sale
// lifecycle. SellerID is a user id for registered sellers or a
// "phone_"-prefixed pseudo id for walk-in consignors.
type Item struct {
	ID          string              `gorm:"column:id;type:uuid;primaryKey"`
	SellerID    string              `gorm:"column:seller_id;type:text;not null;index"`
	Title       string              `gorm:"column:title;not null"`
	Description string              `gorm:"column:description"`
	Category    enums.ItemCategory  `gorm:"column:category;type:text;not null"`
	Condition   enums.ItemCondition `gorm:"column:condition;type:text;not null"`

	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	OriginalPrice *decimal.Decimal `gorm:"column:original_price;type:numeric(10,2)"`

	Images  []string `gorm:"column:images;type:jsonb;serializer:json"`
	Barcode *string  `gorm:"column:barcode;uniqueIndex"`

	Status          enums.ItemStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason *string          `gorm:"column:rejection_reason"`

	// Transition stamps. Append-only except for explicit send-back
	// operations, which null the superseded stamp.
	ApprovedAt *time.Time `gorm:"column:approved_at"`
	LiveAt     *time.Time `gorm:"column:live_at"`
	SoldAt     *time.Time `gorm:"column:sold_at"`
	RejectedAt *time.Time `gorm:"column:rejected_at"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`

	// Sale stamps written by settlement.
	SoldPrice       *decimal.Decimal `gorm:"column:sold_price;type:numeric(10,2)"`
	SellerEarnings  *decimal.Decimal `gorm:"column:seller_earnings;type:numeric(10,2)"`
	StoreCommission *decimal.Decimal `gorm:"column:store_commission;type:numeric(10,2)"`
	TransactionID   *string          `gorm:"column:transaction_id"`
	BuyerInfo       *types.BuyerInfo `gorm:"column:buyer_info;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
