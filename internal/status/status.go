// Package status derives cart, order, and purchase-order display status from
// underlying item and linkage state. Every function here is pure; services
// call them after each mutation and persist the result in the same
// transaction, so the stored snapshot always equals the derived value.
package status

import (
	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// Decision is an uncommitted approve/reject verdict for a single item.
type Decision struct {
	Status enums.ItemApprovalStatus
	Reason *string
}

// EffectiveItemStatus returns the decision's status when one is staged for
// the item, the item's persisted status otherwise, and Pending as the
// fallback for unset values.
func EffectiveItemStatus(item models.CartItem, decisions map[uuid.UUID]Decision) enums.ItemApprovalStatus {
	if d, ok := decisions[item.ID]; ok && d.Status.IsValid() {
		return d.Status
	}
	if item.ApprovalStatus.IsValid() {
		return item.ApprovalStatus
	}
	return enums.ItemApprovalStatusPending
}

// ApprovalComplete reports whether every currently pending item has a staged
// decision. An order with no items counts as complete.
func ApprovalComplete(items []models.CartItem, decisions map[uuid.UUID]Decision) bool {
	for _, item := range items {
		if EffectiveItemStatus(item, decisions) == enums.ItemApprovalStatusPending {
			return false
		}
	}
	return true
}

// ForOrder derives the order status from its items and purchase orders.
// Priority: pending items keep the order in approval; an order whose decided
// items were all rejected is Rejected; otherwise procurement linkage and the
// minimum purchase-order status decide the fulfillment stage.
func ForOrder(items []models.CartItem, pos []models.PurchaseOrder) enums.OrderStatus {
	var pending, approved, rejected, linked int
	for _, item := range items {
		switch item.ApprovalStatus {
		case enums.ItemApprovalStatusApproved:
			approved++
			if item.Procured() {
				linked++
			}
		case enums.ItemApprovalStatusRejected:
			rejected++
		default:
			pending++
		}
	}

	if pending > 0 {
		return enums.OrderStatusPendingApproval
	}
	if approved == 0 && rejected > 0 {
		return enums.OrderStatusRejected
	}
	if len(pos) == 0 {
		return enums.OrderStatusApproved
	}
	if linked < approved {
		return enums.OrderStatusPartiallyProcured
	}

	switch minPOStatus(pos) {
	case enums.PurchaseOrderStatusReceived:
		return enums.OrderStatusCompleted
	case enums.PurchaseOrderStatusInTransit:
		return enums.OrderStatusShipped
	default:
		return enums.OrderStatusProcessing
	}
}

// ForCart mirrors the cart's own status while it is mutable and proxies the
// linked order's derived status once submitted.
func ForCart(cart models.Cart, order *models.Order) string {
	if cart.Status != enums.CartStatusSubmitted || order == nil {
		return cart.Status.String()
	}
	return ForOrder(order.Items, order.PurchaseOrders).String()
}

// Unassigned returns the approved items not yet linked to any purchase
// order, the order's "still needs procurement" set.
func Unassigned(items []models.CartItem) []models.CartItem {
	var out []models.CartItem
	for _, item := range items {
		if item.ApprovalStatus == enums.ItemApprovalStatusApproved && !item.Procured() {
			out = append(out, item)
		}
	}
	return out
}

func minPOStatus(pos []models.PurchaseOrder) enums.PurchaseOrderStatus {
	min := enums.PurchaseOrderStatusReceived
	for _, po := range pos {
		if po.Status.Rank() < min.Rank() {
			min = po.Status
		}
	}
	return min
}
