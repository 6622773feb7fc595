package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// User is a marketplace account. Sellers and buyers are the same role;
// selling rights come from item ownership, not a separate role.
type User struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email       string         `gorm:"column:email;uniqueIndex;not null"`
	DisplayName string         `gorm:"column:display_name;not null"`
	Role        enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'"`

	// Rewards account. PointsBalance and StoreCredit are denormalized
	// running totals; the ledgers are authoritative.
	PointsBalance int             `gorm:"column:points_balance;not null;default:0"`
	StoreCredit   decimal.Decimal `gorm:"column:store_credit;type:numeric(10,2);not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
