package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mayaruiz/secondstory-backend/pkg/enums"
)

// PointsAudit is one ledger entry of reward points. Adjustment is
// signed: positive for awards, negative for redemptions and downward
// corrections.
type PointsAudit struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Type           enums.PointsAuditType `gorm:"column:type;type:text;not null"`
	Adjustment     int                   `gorm:"column:adjustment;not null"`
	PreviousPoints int                   `gorm:"column:previous_points;not null"`
	NewPoints      int                   `gorm:"column:new_points;not null"`

	OrderID *uuid.UUID `gorm:"column:order_id;type:uuid"`
	ActorID *uuid.UUID `gorm:"column:actor_id;type:uuid"`
	Reason  *string    `gorm:"column:reason"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
