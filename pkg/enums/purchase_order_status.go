package enums

import "fmt"

// PurchaseOrderStatus tracks a vendor purchase order through its strict
// delivery chain. Transitions only ever move one step forward.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusIssued    PurchaseOrderStatus = "issued"
	PurchaseOrderStatusPurchased PurchaseOrderStatus = "purchased"
	PurchaseOrderStatusInTransit PurchaseOrderStatus = "in_transit"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
)

// purchaseOrderChain is the canonical ordering used both for transition
// checks and for ranked aggregation into the parent order status.
var purchaseOrderChain = []PurchaseOrderStatus{
	PurchaseOrderStatusIssued,
	PurchaseOrderStatusPurchased,
	PurchaseOrderStatusInTransit,
	PurchaseOrderStatusReceived,
}

// String implements fmt.Stringer.
func (p PurchaseOrderStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (p PurchaseOrderStatus) IsValid() bool {
	return p.Rank() >= 0
}

// Rank returns the zero-based position of the status in the delivery chain,
// or -1 for unknown values.
func (p PurchaseOrderStatus) Rank() int {
	for i, candidate := range purchaseOrderChain {
		if candidate == p {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the immediate successor of p.
func (p PurchaseOrderStatus) CanAdvanceTo(next PurchaseOrderStatus) bool {
	from, to := p.Rank(), next.Rank()
	return from >= 0 && to >= 0 && to == from+1
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range purchaseOrderChain {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
