package billback

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/config"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/metrics"
	"github.com/calderaops/procurehub-backend/pkg/outbox"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

type stubBillbackRepo struct {
	orders    map[uuid.UUID]*models.Order
	pos       map[uuid.UUID]*models.PurchaseOrder
	billables []models.BillableItem
	createErr map[uuid.UUID]error
	resetN    int64
}

func newStubBillbackRepo() *stubBillbackRepo {
	return &stubBillbackRepo{
		orders:    map[uuid.UUID]*models.Order{},
		pos:       map[uuid.UUID]*models.PurchaseOrder{},
		createErr: map[uuid.UUID]error{},
	}
}

func (s *stubBillbackRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubBillbackRepo) FindPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error) {
	po, ok := s.pos[poID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *po
	clone.Items = append([]models.CartItem(nil), po.Items...)
	return &clone, nil
}

func (s *stubBillbackRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubBillbackRepo) FindPaidPurchaseOrders(ctx context.Context, companyID uuid.UUID) ([]models.PurchaseOrder, error) {
	var paid []models.PurchaseOrder
	for _, po := range s.pos {
		if po.PaymentDate == nil {
			continue
		}
		order := s.orders[po.OriginalOrderID]
		if order == nil || order.CompanyID != companyID {
			continue
		}
		paid = append(paid, *po)
	}
	return paid, nil
}

func (s *stubBillbackRepo) FindBilledSourceIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	billed := map[uuid.UUID]struct{}{}
	for _, b := range s.billables {
		if b.SourceType != sourceType {
			continue
		}
		for _, id := range sourceIDs {
			if b.SourceID == id {
				billed[id] = struct{}{}
			}
		}
	}
	return billed, nil
}

func (s *stubBillbackRepo) FindBilledCartItemIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	billed := map[uuid.UUID]struct{}{}
	for _, b := range s.billables {
		if b.SourceType == sourceType && b.SourceID == sourceID && b.CartItemID != nil {
			billed[*b.CartItemID] = struct{}{}
		}
	}
	return billed, nil
}

func (s *stubBillbackRepo) CreateBillableItems(ctx context.Context, items []models.BillableItem) error {
	if len(items) > 0 {
		if err, ok := s.createErr[items[0].SourceID]; ok {
			return err
		}
	}
	s.billables = append(s.billables, items...)
	return nil
}

func (s *stubBillbackRepo) ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return s.resetN, nil
}

func (s *stubBillbackRepo) ListBillableItems(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters ListFilters) (*BillableList, error) {
	return &BillableList{}, nil
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository, pub outboxPublisher) Service {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "billback-test", Output: io.Discard})
	svc, err := NewService(repo, stubTxRunner{}, pub, log, metrics.NewBillbackMetrics(nil), config.BillbackConfig{
		DefaultMarkupPercent: "0",
		SyncBatchSize:        2,
	})
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

// paidPO seeds an order with one paid PO carrying the given item prices.
func paidPO(repo *stubBillbackRepo, companyID uuid.UUID, priceCents ...int) *models.PurchaseOrder {
	order := &models.Order{ID: uuid.New(), CompanyID: companyID}
	po := &models.PurchaseOrder{
		ID:              uuid.New(),
		OriginalOrderID: order.ID,
		VendorID:        uuid.New(),
		Status:          enums.PurchaseOrderStatusReceived,
	}
	paidAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	po.PaymentDate = &paidAt
	for _, cents := range priceCents {
		poID := po.ID
		po.Items = append(po.Items, models.CartItem{
			ID:              uuid.New(),
			Name:            "line item",
			Quantity:        1,
			UnitPriceCents:  cents,
			TotalPriceCents: cents,
			ApprovalStatus:  enums.ItemApprovalStatusApproved,
			PurchaseOrderID: &poID,
		})
	}
	repo.orders[order.ID] = order
	repo.pos[po.ID] = po
	return po
}

func TestCreateFromPurchaseOrderConservesCost(t *testing.T) {
	repo := newStubBillbackRepo()
	companyID := uuid.New()
	po := paidPO(repo, companyID, 1200, 3400, 550)
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	res, err := svc.CreateFromPurchaseOrder(context.Background(), CreateInput{PurchaseOrderID: po.ID})
	if err != nil {
		t.Fatalf("create from po: %v", err)
	}
	if res.Created != 3 || res.Skipped != 0 {
		t.Fatalf("expected 3 created, got %+v", res)
	}

	var billedCost, linkedCost int
	for _, b := range repo.billables {
		if b.SourceType != enums.BillableSourcePurchaseOrder || b.SourceID != po.ID {
			t.Fatalf("unexpected source on billable: %+v", b)
		}
		if b.Status != enums.BillableItemStatusPending {
			t.Fatalf("expected pending billable, got %s", b.Status)
		}
		if b.MarkupCents != 0 || b.TotalCents != b.CostCents {
			t.Fatalf("expected pass-through cost, got %+v", b)
		}
		if b.CompanyID != companyID {
			t.Fatalf("expected company scope %s, got %s", companyID, b.CompanyID)
		}
		billedCost += b.CostCents
	}
	for _, item := range po.Items {
		linkedCost += item.TotalPriceCents
	}
	if billedCost != linkedCost {
		t.Fatalf("cost not conserved: billed %d, linked %d", billedCost, linkedCost)
	}
	if len(pub.events) != 1 || pub.events[0].EventType != enums.EventBillbackCreated {
		t.Fatalf("expected billback event, got %+v", pub.events)
	}
}

func TestCreateFromPurchaseOrderNoLinkedItems(t *testing.T) {
	repo := newStubBillbackRepo()
	po := paidPO(repo, uuid.New())
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.CreateFromPurchaseOrder(context.Background(), CreateInput{PurchaseOrderID: po.ID})
	assertCode(t, err, pkgerrors.CodeNoLinkedItems)
}

func TestCreateFromPurchaseOrderSkipsExistingItems(t *testing.T) {
	repo := newStubBillbackRepo()
	po := paidPO(repo, uuid.New(), 100, 200)
	existing := po.Items[0].ID
	repo.billables = append(repo.billables, models.BillableItem{
		SourceType: enums.BillableSourcePurchaseOrder,
		SourceID:   po.ID,
		CartItemID: &existing,
		CostCents:  100,
		TotalCents: 100,
	})
	pub := &stubOutboxPublisher{}
	svc := newTestService(t, repo, pub)

	res, err := svc.CreateFromPurchaseOrder(context.Background(), CreateInput{PurchaseOrderID: po.ID})
	if err != nil {
		t.Fatalf("create from po: %v", err)
	}
	if res.Created != 1 || res.Skipped != 1 {
		t.Fatalf("expected 1 created 1 skipped, got %+v", res)
	}
	if len(repo.billables) != 2 {
		t.Fatalf("expected 2 billables total, got %d", len(repo.billables))
	}
}

func TestCreateFromPurchaseOrderUniqueViolationRace(t *testing.T) {
	repo := newStubBillbackRepo()
	po := paidPO(repo, uuid.New(), 100)
	repo.createErr[po.ID] = errors.New(`duplicate key value violates unique constraint "ux_billable_items_source_item"`)
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	_, err := svc.CreateFromPurchaseOrder(context.Background(), CreateInput{PurchaseOrderID: po.ID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestSyncMissingIdempotent(t *testing.T) {
	repo := newStubBillbackRepo()
	companyID := uuid.New()
	paidPO(repo, companyID, 100, 200)
	paidPO(repo, companyID, 300)
	paidPO(repo, companyID, 400, 500, 600)
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	first, err := svc.SyncMissing(context.Background(), companyID)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Synced != 3 || first.AlreadyBilled != 0 {
		t.Fatalf("expected 3 synced on first pass, got %+v", first)
	}
	if len(repo.billables) != 6 {
		t.Fatalf("expected 6 billables, got %d", len(repo.billables))
	}

	second, err := svc.SyncMissing(context.Background(), companyID)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Synced != 0 || second.AlreadyBilled != 3 {
		t.Fatalf("expected idempotent second pass, got %+v", second)
	}
	if len(repo.billables) != 6 {
		t.Fatalf("second pass created records: %d", len(repo.billables))
	}
}

func TestSyncMissingScopedToCompany(t *testing.T) {
	repo := newStubBillbackRepo()
	companyID := uuid.New()
	paidPO(repo, companyID, 100)
	paidPO(repo, uuid.New(), 999)
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	res, err := svc.SyncMissing(context.Background(), companyID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.PaidPOs != 1 || res.Synced != 1 {
		t.Fatalf("expected only own company POs, got %+v", res)
	}
}

func TestSyncMissingToleratesEmptyPOs(t *testing.T) {
	repo := newStubBillbackRepo()
	companyID := uuid.New()
	paidPO(repo, companyID)
	paidPO(repo, companyID, 100)
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	res, err := svc.SyncMissing(context.Background(), companyID)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.Synced != 1 || res.Failed != 0 {
		t.Fatalf("expected empty PO skipped without failure, got %+v", res)
	}
}

func TestSyncMissingCollectsFailures(t *testing.T) {
	repo := newStubBillbackRepo()
	companyID := uuid.New()
	broken := paidPO(repo, companyID, 100)
	paidPO(repo, companyID, 200)
	repo.createErr[broken.ID] = errors.New("connection reset")
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	res, err := svc.SyncMissing(context.Background(), companyID)
	if err == nil {
		t.Fatalf("expected combined error for failed PO")
	}
	if res.Synced != 1 || res.Failed != 1 {
		t.Fatalf("expected batch to continue past failure, got %+v", res)
	}
}

func TestResetPendingMarkups(t *testing.T) {
	repo := newStubBillbackRepo()
	repo.resetN = 4
	svc := newTestService(t, repo, &stubOutboxPublisher{})

	n, err := svc.ResetPendingMarkups(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("reset markups: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 updated, got %d", n)
	}
}
