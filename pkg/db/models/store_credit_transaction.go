package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// StoreCreditTransaction is one ledger entry of seller store credit.
// Amount is always positive; Type says which direction it moved.
type StoreCreditTransaction struct {
	ID       uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	SellerID string                      `gorm:"column:seller_id;type:text;not null;index"`
	Type     enums.CreditTransactionType `gorm:"column:type;type:text;not null"`
	Amount   decimal.Decimal             `gorm:"column:amount;type:numeric(10,2);not null"`

	// Source references for earned entries.
	ItemID        *string `gorm:"column:item_id;type:uuid"`
	TransactionID *string `gorm:"column:transaction_id"`

	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
