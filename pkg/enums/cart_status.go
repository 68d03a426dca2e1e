package enums

import "fmt"

// CartStatus tracks a cart before and at the moment of submission. Once a
// cart is submitted its display status proxies the linked order's status.
type CartStatus string

const (
	CartStatusDraft          CartStatus = "draft"
	CartStatusReadyForReview CartStatus = "ready_for_review"
	CartStatusSubmitted      CartStatus = "submitted"
)

var validCartStatuses = []CartStatus{
	CartStatusDraft,
	CartStatusReadyForReview,
	CartStatusSubmitted,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// Mutable reports whether cart contents may still be edited by the owner.
func (c CartStatus) Mutable() bool {
	return c == CartStatusDraft || c == CartStatusReadyForReview
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
