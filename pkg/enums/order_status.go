package enums

import "fmt"

// OrderStatus is the derived lifecycle state of a submitted order. The
// persisted value is a snapshot of the derivation in internal/status and is
// rewritten after every mutating operation.
type OrderStatus string

const (
	OrderStatusPendingApproval   OrderStatus = "pending_approval"
	OrderStatusRejected          OrderStatus = "rejected"
	OrderStatusApproved          OrderStatus = "approved"
	OrderStatusPartiallyProcured OrderStatus = "partially_procured"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusCompleted         OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingApproval,
	OrderStatusRejected,
	OrderStatusApproved,
	OrderStatusPartiallyProcured,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// Procurable reports whether the procurement splitter may open new purchase
// orders against an order in this state.
func (o OrderStatus) Procurable() bool {
	return o == OrderStatusApproved || o == OrderStatusPartiallyProcured
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
