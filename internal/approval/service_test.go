package approval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/internal/status"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/outbox"
	"github.com/calderaops/procurehub-backend/pkg/types"
)

type stubApprovalRepo struct {
	order        *models.Order
	orderUpdates map[string]any
}

func (s *stubApprovalRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubApprovalRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s.order
	clone.Items = append([]models.CartItem(nil), s.order.Items...)
	return &clone, nil
}

func (s *stubApprovalRepo) UpdateItemApproval(ctx context.Context, itemID uuid.UUID, approval enums.ItemApprovalStatus, reason *string) error {
	for i := range s.order.Items {
		if s.order.Items[i].ID == itemID {
			s.order.Items[i].ApprovalStatus = approval
			s.order.Items[i].RejectionReason = reason
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubApprovalRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.orderUpdates = updates
	if v, ok := updates["status"].(enums.OrderStatus); ok {
		s.order.Status = v
	}
	if v, ok := updates["status_history"].(types.StatusHistory); ok {
		s.order.StatusHistory = v
	}
	return nil
}

type stubOutboxPublisher struct {
	event  outbox.DomainEvent
	called bool
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.called = true
	s.event = event
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func pendingOrder(itemCount int) *models.Order {
	order := &models.Order{
		ID:     uuid.New(),
		Status: enums.OrderStatusPendingApproval,
	}
	for i := 0; i < itemCount; i++ {
		order.Items = append(order.Items, models.CartItem{
			ID:             uuid.New(),
			ApprovalStatus: enums.ItemApprovalStatusPending,
		})
	}
	return order
}

func newTestService(t *testing.T, repo Repository, pub outboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, pub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestCommitIncompleteApproval(t *testing.T) {
	order := pendingOrder(3)
	repo := &stubApprovalRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	decisions := map[uuid.UUID]status.Decision{
		order.Items[0].ID: {Status: enums.ItemApprovalStatusApproved},
		order.Items[1].ID: {Status: enums.ItemApprovalStatusApproved},
	}

	_, err := svc.Commit(context.Background(), CommitInput{
		OrderID:     order.ID,
		Decisions:   decisions,
		ActorUserID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeIncompleteApproval)

	if repo.orderUpdates != nil {
		t.Fatal("order must not be touched on incomplete approval")
	}
	for _, item := range repo.order.Items {
		if item.ApprovalStatus != enums.ItemApprovalStatusPending {
			t.Fatalf("item %s mutated on failed commit", item.ID)
		}
	}
}

func TestCommitUnknownItemSelection(t *testing.T) {
	order := pendingOrder(1)
	repo := &stubApprovalRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	decisions := map[uuid.UUID]status.Decision{
		order.Items[0].ID: {Status: enums.ItemApprovalStatusApproved},
		uuid.New():        {Status: enums.ItemApprovalStatusApproved},
	}

	_, err := svc.Commit(context.Background(), CommitInput{
		OrderID:     order.ID,
		Decisions:   decisions,
		ActorUserID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeInvalidItemSelection)
}

func TestCommitAppliesDecisions(t *testing.T) {
	order := pendingOrder(2)
	repo := &stubApprovalRepo{order: order}
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	reason := "over budget"
	decisions := map[uuid.UUID]status.Decision{
		order.Items[0].ID: {Status: enums.ItemApprovalStatusApproved},
		order.Items[1].ID: {Status: enums.ItemApprovalStatusRejected, Reason: &reason},
	}

	result, err := svc.Commit(context.Background(), CommitInput{
		OrderID:     order.ID,
		Decisions:   decisions,
		ActorUserID: uuid.New(),
		ActorRole:   "approver",
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	if result.Status != enums.OrderStatusApproved {
		t.Fatalf("expected approved, got %s", result.Status)
	}
	if result.ApprovedCount != 1 || result.RejectedCount != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if repo.order.Status != enums.OrderStatusApproved {
		t.Fatalf("persisted status %s", repo.order.Status)
	}
	if repo.order.Items[1].RejectionReason == nil || *repo.order.Items[1].RejectionReason != reason {
		t.Fatal("rejection reason not persisted")
	}
	if latest := repo.order.StatusHistory.Latest(); latest == nil || latest.Status != enums.OrderStatusApproved {
		t.Fatal("status history entry missing")
	}
	if !pub.called || pub.event.EventType != enums.EventOrderApprovalCommitted {
		t.Fatalf("expected approval event, got %+v", pub.event)
	}
}

func TestCommitAllRejectedMarksOrderRejected(t *testing.T) {
	order := pendingOrder(2)
	repo := &stubApprovalRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	decisions := map[uuid.UUID]status.Decision{
		order.Items[0].ID: {Status: enums.ItemApprovalStatusRejected},
		order.Items[1].ID: {Status: enums.ItemApprovalStatusRejected},
	}

	result, err := svc.Commit(context.Background(), CommitInput{
		OrderID:     order.ID,
		Decisions:   decisions,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if result.Status != enums.OrderStatusRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
}

func TestCommitOrderNotFound(t *testing.T) {
	repo := &stubApprovalRepo{}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.Commit(context.Background(), CommitInput{
		OrderID:     uuid.New(),
		ActorUserID: uuid.New(),
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestApproveAllCoversOnlyPendingItems(t *testing.T) {
	order := pendingOrder(3)
	order.Items[0].ApprovalStatus = enums.ItemApprovalStatusRejected
	repo := &stubApprovalRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	result, err := svc.ApproveAll(context.Background(), BulkDecisionInput{
		OrderID:     order.ID,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("approve all: %v", err)
	}
	if result.ApprovedCount != 2 {
		t.Fatalf("expected 2 approvals, got %d", result.ApprovedCount)
	}
	if repo.order.Items[0].ApprovalStatus != enums.ItemApprovalStatusRejected {
		t.Fatal("previously rejected item must not be re-decided")
	}
}

func TestRejectAllCarriesReason(t *testing.T) {
	order := pendingOrder(2)
	repo := &stubApprovalRepo{order: order}
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	reason := "duplicate request"
	result, err := svc.RejectAll(context.Background(), BulkDecisionInput{
		OrderID:     order.ID,
		Reason:      &reason,
		ActorUserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("reject all: %v", err)
	}
	if result.Status != enums.OrderStatusRejected {
		t.Fatalf("expected rejected, got %s", result.Status)
	}
	for _, item := range repo.order.Items {
		if item.RejectionReason == nil || *item.RejectionReason != reason {
			t.Fatalf("item %s missing rejection reason", item.ID)
		}
	}
}
