package rewards

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RedeemResult reports the outcome of a points redemption.
type RedeemResult struct {
	PointsRedeemed int             `json:"points_redeemed"`
	CreditIssued   decimal.Decimal `json:"credit_issued"`
	PointsBalance  int             `json:"points_balance"`
}

// AdjustResult reports the outcome of a manual points adjustment.
type AdjustResult struct {
	PreviousPoints int `json:"previous_points"`
	NewPoints      int `json:"new_points"`
}

// BalanceResult is a user's rewards account snapshot. StoreCredit is
// the ledger sum, not the cached column.
type BalanceResult struct {
	UserID        uuid.UUID       `json:"user_id"`
	PointsBalance int             `json:"points_balance"`
	StoreCredit   decimal.Decimal `json:"store_credit"`
}

// CreditEarner is one row of the top-earners analytics view.
type CreditEarner struct {
	SellerID string          `json:"seller_id"`
	Total    decimal.Decimal `json:"total"`
}

// AnalyticsResult aggregates program-wide rewards activity.
type AnalyticsResult struct {
	TotalPointsAwarded  int             `json:"total_points_awarded"`
	TotalPointsRedeemed int             `json:"total_points_redeemed"`
	TotalCreditIssued   decimal.Decimal `json:"total_credit_issued"`
	TopEarners          []CreditEarner  `json:"top_earners"`
}

// UpdateConfigInput carries admin changes to the rewards policy. Nil
// fields keep the current value.
type UpdateConfigInput struct {
	PointsPerDollar *int             `json:"points_per_dollar"`
	RedemptionRate  *decimal.Decimal `json:"redemption_rate"`
	MinRedeemPoints *int             `json:"min_redeem_points"`
	MaxRedeemPoints *int             `json:"max_redeem_points"`
	Enabled         *bool            `json:"enabled"`
}
