package enums

import "fmt"

// CartType distinguishes one-off carts from recurring/scheduled requests.
type CartType string

const (
	CartTypeStandard  CartType = "standard"
	CartTypeRecurring CartType = "recurring"
	CartTypeScheduled CartType = "scheduled"
)

var validCartTypes = []CartType{
	CartTypeStandard,
	CartTypeRecurring,
	CartTypeScheduled,
}

// String implements fmt.Stringer.
func (c CartType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartType.
func (c CartType) IsValid() bool {
	for _, candidate := range validCartTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// HasSchedule reports whether carts of this type carry schedule fields.
func (c CartType) HasSchedule() bool {
	return c == CartTypeRecurring || c == CartTypeScheduled
}

// ParseCartType converts raw input into a CartType.
func ParseCartType(value string) (CartType, error) {
	for _, candidate := range validCartTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart type %q", value)
}
