package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// Sale is the per-item settlement record, one row per item sold.
type Sale struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	TransactionID string    `gorm:"column:transaction_id;not null;index"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID        string    `gorm:"column:item_id;type:uuid;not null;index"`
	SellerID      string    `gorm:"column:seller_id;type:text;not null;index"`
	BuyerID       *uuid.UUID `gorm:"column:buyer_id;type:uuid"`

	SalePrice       decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2);not null"`
	SellerEarnings  decimal.Decimal `gorm:"column:seller_earnings;type:numeric(10,2);not null"`
	StoreCommission decimal.Decimal `gorm:"column:store_commission;type:numeric(10,2);not null"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	InHouse       bool                `gorm:"column:in_house;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
