package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund records one refunded item of an order. The order-level
// idempotency guard is the conditional flip of orders.refund_status,
// not these rows.
type Refund struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID  string    `gorm:"column:item_id;type:uuid;not null"`

	OriginalPrice  decimal.Decimal `gorm:"column:original_price;type:numeric(10,2);not null"`
	RefundAmount   decimal.Decimal `gorm:"column:refund_amount;type:numeric(10,2);not null"`
	Reason         string          `gorm:"column:reason;not null"`
	RefundedBy     uuid.UUID       `gorm:"column:refunded_by;type:uuid;not null"`
	StripeRefundID *string         `gorm:"column:stripe_refund_id"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
