package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCart          OutboxAggregateType = "cart"
	AggregateOrder         OutboxAggregateType = "order"
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateBillableItem  OutboxAggregateType = "billable_item"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCart,
	AggregateOrder,
	AggregatePurchaseOrder,
	AggregateBillableItem,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventCartSubmitted          OutboxEventType = "cart_submitted"
	EventOrderApprovalCommitted OutboxEventType = "order_approval_committed"
	EventOrderStatusChanged     OutboxEventType = "order_status_changed"
	EventPurchaseOrderIssued    OutboxEventType = "purchase_order_issued"
	EventPurchaseOrderAdvanced  OutboxEventType = "purchase_order_advanced"
	EventPurchaseOrderReceived  OutboxEventType = "purchase_order_received"
	EventBillbackCreated        OutboxEventType = "billback_created"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartSubmitted,
	EventOrderApprovalCommitted,
	EventOrderStatusChanged,
	EventPurchaseOrderIssued,
	EventPurchaseOrderAdvanced,
	EventPurchaseOrderReceived,
	EventBillbackCreated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
