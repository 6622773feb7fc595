package enums

import "fmt"

// RefundStatus marks whether an order's proceeds have been reversed.
type RefundStatus string

const (
	RefundStatusNone     RefundStatus = "none"
	RefundStatusRefunded RefundStatus = "refunded"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusNone,
	RefundStatusRefunded,
}

func (s RefundStatus) String() string {
	return string(s)
}

func (s RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
