package status

import (
	"testing"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

func approvedItem(poID *uuid.UUID) models.CartItem {
	return models.CartItem{
		ID:              uuid.New(),
		ApprovalStatus:  enums.ItemApprovalStatusApproved,
		PurchaseOrderID: poID,
	}
}

func pendingItem() models.CartItem {
	return models.CartItem{ID: uuid.New(), ApprovalStatus: enums.ItemApprovalStatusPending}
}

func rejectedItem() models.CartItem {
	return models.CartItem{ID: uuid.New(), ApprovalStatus: enums.ItemApprovalStatusRejected}
}

func po(status enums.PurchaseOrderStatus) models.PurchaseOrder {
	return models.PurchaseOrder{ID: uuid.New(), VendorID: uuid.New(), Status: status}
}

func TestEffectiveItemStatusPrefersDecision(t *testing.T) {
	item := pendingItem()
	decisions := map[uuid.UUID]Decision{
		item.ID: {Status: enums.ItemApprovalStatusApproved},
	}

	if got := EffectiveItemStatus(item, decisions); got != enums.ItemApprovalStatusApproved {
		t.Fatalf("expected approved, got %s", got)
	}
	if got := EffectiveItemStatus(pendingItem(), decisions); got != enums.ItemApprovalStatusPending {
		t.Fatalf("expected pending for undecided item, got %s", got)
	}
}

func TestEffectiveItemStatusFallsBackToPending(t *testing.T) {
	item := models.CartItem{ID: uuid.New()}
	if got := EffectiveItemStatus(item, nil); got != enums.ItemApprovalStatusPending {
		t.Fatalf("expected pending for unset status, got %s", got)
	}
}

func TestApprovalComplete(t *testing.T) {
	a, b := pendingItem(), pendingItem()
	items := []models.CartItem{a, b}

	if ApprovalComplete(items, nil) {
		t.Fatal("expected incomplete with undecided pending items")
	}

	partial := map[uuid.UUID]Decision{a.ID: {Status: enums.ItemApprovalStatusApproved}}
	if ApprovalComplete(items, partial) {
		t.Fatal("expected incomplete with one undecided item")
	}

	full := map[uuid.UUID]Decision{
		a.ID: {Status: enums.ItemApprovalStatusApproved},
		b.ID: {Status: enums.ItemApprovalStatusRejected},
	}
	if !ApprovalComplete(items, full) {
		t.Fatal("expected complete when every pending item is decided")
	}

	if !ApprovalComplete(nil, nil) {
		t.Fatal("expected empty item set to count as complete")
	}
}

func TestForOrderPendingApproval(t *testing.T) {
	items := []models.CartItem{approvedItem(nil), pendingItem()}
	if got := ForOrder(items, nil); got != enums.OrderStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %s", got)
	}
}

func TestForOrderRejected(t *testing.T) {
	items := []models.CartItem{rejectedItem(), rejectedItem()}
	if got := ForOrder(items, nil); got != enums.OrderStatusRejected {
		t.Fatalf("expected rejected, got %s", got)
	}
}

func TestForOrderMixedRejectionStaysInPlay(t *testing.T) {
	items := []models.CartItem{approvedItem(nil), rejectedItem()}
	if got := ForOrder(items, nil); got != enums.OrderStatusApproved {
		t.Fatalf("expected approved with a surviving item, got %s", got)
	}
}

func TestForOrderApprovedBeforeProcurement(t *testing.T) {
	items := []models.CartItem{approvedItem(nil), approvedItem(nil)}
	if got := ForOrder(items, nil); got != enums.OrderStatusApproved {
		t.Fatalf("expected approved, got %s", got)
	}
}

func TestForOrderPartialProcurement(t *testing.T) {
	vendorA := po(enums.PurchaseOrderStatusIssued)

	// Seven items, three claimed by vendor A, four unassigned.
	items := make([]models.CartItem, 0, 7)
	for i := 0; i < 3; i++ {
		items = append(items, approvedItem(&vendorA.ID))
	}
	for i := 0; i < 4; i++ {
		items = append(items, approvedItem(nil))
	}

	if got := ForOrder(items, []models.PurchaseOrder{vendorA}); got != enums.OrderStatusPartiallyProcured {
		t.Fatalf("expected partially_procured, got %s", got)
	}

	// Assign the remaining four to vendor B.
	vendorB := po(enums.PurchaseOrderStatusIssued)
	for i := 3; i < 7; i++ {
		items[i].PurchaseOrderID = &vendorB.ID
	}

	got := ForOrder(items, []models.PurchaseOrder{vendorA, vendorB})
	if got != enums.OrderStatusProcessing {
		t.Fatalf("expected processing once fully assigned, got %s", got)
	}
}

func TestForOrderMinimumPOStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		statuses []enums.PurchaseOrderStatus
		want     enums.OrderStatus
	}{
		{"all issued", []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusIssued, enums.PurchaseOrderStatusIssued}, enums.OrderStatusProcessing},
		{"purchased floor", []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusPurchased, enums.PurchaseOrderStatusReceived}, enums.OrderStatusProcessing},
		{"in transit floor", []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusInTransit, enums.PurchaseOrderStatusReceived}, enums.OrderStatusShipped},
		{"all received", []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusReceived, enums.PurchaseOrderStatusReceived}, enums.OrderStatusCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos := make([]models.PurchaseOrder, 0, len(tc.statuses))
			items := make([]models.CartItem, 0, len(tc.statuses))
			for _, s := range tc.statuses {
				p := po(s)
				pos = append(pos, p)
				items = append(items, approvedItem(&p.ID))
			}
			if got := ForOrder(items, pos); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestForOrderEmptyItems(t *testing.T) {
	if got := ForOrder(nil, nil); got != enums.OrderStatusApproved {
		t.Fatalf("expected approved for empty order, got %s", got)
	}
}

func TestForCartProxiesOrderOnceSubmitted(t *testing.T) {
	cart := models.Cart{Status: enums.CartStatusDraft}
	if got := ForCart(cart, nil); got != "draft" {
		t.Fatalf("expected draft, got %s", got)
	}

	cart.Status = enums.CartStatusSubmitted
	order := &models.Order{
		Items: []models.CartItem{approvedItem(nil)},
	}
	if got := ForCart(cart, order); got != "approved" {
		t.Fatalf("expected proxied approved, got %s", got)
	}
}

func TestUnassigned(t *testing.T) {
	poID := uuid.New()
	items := []models.CartItem{
		approvedItem(nil),
		approvedItem(&poID),
		pendingItem(),
		rejectedItem(),
	}

	got := Unassigned(items)
	if len(got) != 1 {
		t.Fatalf("expected 1 unassigned item, got %d", len(got))
	}
	if got[0].ID != items[0].ID {
		t.Fatalf("unexpected unassigned item %s", got[0].ID)
	}
}
