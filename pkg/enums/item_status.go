package enums

import "fmt"

// ItemStatus tracks a consignment item through its sale lifecycle.
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
	ItemStatusLive     ItemStatus = "live"
	ItemStatusSold     ItemStatus = "sold"
	ItemStatusRejected ItemStatus = "rejected"
	ItemStatusArchived ItemStatus = "archived"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusApproved,
	ItemStatusLive,
	ItemStatusSold,
	ItemStatusRejected,
	ItemStatusArchived,
}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemStatus.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
