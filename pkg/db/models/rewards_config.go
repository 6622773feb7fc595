package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardsConfig is the single-row tunable rewards policy. Operations
// read it once at the start and use that snapshot throughout.
type RewardsConfig struct {
	ID int `gorm:"column:id;primaryKey"`

	PointsPerDollar    int             `gorm:"column:points_per_dollar;not null;default:1"`
	RedemptionRate     decimal.Decimal `gorm:"column:redemption_rate;type:numeric(10,4);not null;default:0.01"`
	MinRedeemPoints    int             `gorm:"column:min_redeem_points;not null;default:100"`
	MaxRedeemPoints    int             `gorm:"column:max_redeem_points;not null;default:10000"`
	Enabled            bool            `gorm:"column:enabled;not null;default:true"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DefaultRewardsConfig returns the policy used when no row exists yet.
func DefaultRewardsConfig() RewardsConfig {
	return RewardsConfig{
		ID:              1,
		PointsPerDollar: 1,
		RedemptionRate:  decimal.NewFromFloat(0.01),
		MinRedeemPoints: 100,
		MaxRedeemPoints: 10000,
		Enabled:         true,
	}
}
