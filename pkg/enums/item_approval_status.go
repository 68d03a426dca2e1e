package enums

import "fmt"

// ItemApprovalStatus tracks the per-item approval decision on an order.
type ItemApprovalStatus string

const (
	ItemApprovalStatusPending  ItemApprovalStatus = "pending"
	ItemApprovalStatusApproved ItemApprovalStatus = "approved"
	ItemApprovalStatusRejected ItemApprovalStatus = "rejected"
)

var validItemApprovalStatuses = []ItemApprovalStatus{
	ItemApprovalStatusPending,
	ItemApprovalStatusApproved,
	ItemApprovalStatusRejected,
}

// String implements fmt.Stringer.
func (i ItemApprovalStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemApprovalStatus.
func (i ItemApprovalStatus) IsValid() bool {
	for _, candidate := range validItemApprovalStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// Decided reports whether the status represents an explicit decision.
func (i ItemApprovalStatus) Decided() bool {
	return i == ItemApprovalStatusApproved || i == ItemApprovalStatusRejected
}

// ParseItemApprovalStatus converts raw input into an ItemApprovalStatus.
func ParseItemApprovalStatus(value string) (ItemApprovalStatus, error) {
	for _, candidate := range validItemApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item approval status %q", value)
}
