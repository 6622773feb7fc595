package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
	"github.com/mayaruiz/secondstory-backend/pkg/types"
)

// Order is one settled checkout. Items and SellerBreakdown are
// immutable snapshots taken at settlement time so later item edits
// cannot rewrite order history.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;uniqueIndex;not null"`

	// BuyerID is null for anonymous walk-in sales.
	BuyerID *uuid.UUID `gorm:"column:buyer_id;type:uuid;index"`

	Items           []types.OrderItemSnapshot `gorm:"column:items;type:jsonb;serializer:json;not null"`
	SellerBreakdown types.SellerBreakdown     `gorm:"column:seller_breakdown;type:jsonb;serializer:json;not null"`

	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	ShippingFee decimal.Decimal `gorm:"column:shipping_fee;type:numeric(10,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`

	FulfillmentMethod enums.FulfillmentMethod `gorm:"column:fulfillment_method;type:text;not null"`
	ShippingAddress   *string                 `gorm:"column:shipping_address"`
	PaymentMethod     enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null"`
	PaymentRef        *string                 `gorm:"column:payment_ref"`

	Status enums.OrderStatus `gorm:"column:status;type:text;not null"`

	// Refund stamps written once by the refund engine.
	RefundStatus enums.RefundStatus `gorm:"column:refund_status;type:text;not null;default:'none'"`
	RefundAmount *decimal.Decimal   `gorm:"column:refund_amount;type:numeric(10,2)"`
	RefundReason *string            `gorm:"column:refund_reason"`
	RefundedBy   *uuid.UUID         `gorm:"column:refunded_by;type:uuid"`
	RefundedAt   *time.Time         `gorm:"column:refunded_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
