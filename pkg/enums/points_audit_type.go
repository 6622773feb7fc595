package enums

import "fmt"

// PointsAuditType classifies a points-balance mutation.
type PointsAuditType string

const (
	PointsAuditTypePurchaseReward   PointsAuditType = "purchase_reward"
	PointsAuditTypePointsRedemption PointsAuditType = "points_redemption"
	PointsAuditTypeManualAdjustment PointsAuditType = "manual_adjustment"
)

var validPointsAuditTypes = []PointsAuditType{
	PointsAuditTypePurchaseReward,
	PointsAuditTypePointsRedemption,
	PointsAuditTypeManualAdjustment,
}

func (t PointsAuditType) String() string {
	return string(t)
}

func (t PointsAuditType) IsValid() bool {
	for _, candidate := range validPointsAuditTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParsePointsAuditType(value string) (PointsAuditType, error) {
	for _, candidate := range validPointsAuditTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points audit type %q", value)
}
