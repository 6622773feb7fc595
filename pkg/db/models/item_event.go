package models

import (
	"time"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// ItemEvent is one append-only audit entry per lifecycle transition.
// ActorRole records who moved the item: seller, admin, or one of the
// internal engines (settlement, refund).
type ItemEvent struct {
	ID         string           `gorm:"column:id;type:uuid;primaryKey"`
	ItemID     string           `gorm:"column:item_id;type:uuid;not null;index"`
	FromStatus enums.ItemStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.ItemStatus `gorm:"column:to_status;type:text;not null"`
	ActorID    string           `gorm:"column:actor_id;type:text;not null"`
	ActorRole  string           `gorm:"column:actor_role;type:text;not null"`
	Note       *string          `gorm:"column:note"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}
