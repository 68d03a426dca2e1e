package billback

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/config"
	"github.com/calderaops/procurehub-backend/pkg/db"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/logger"
	"github.com/calderaops/procurehub-backend/pkg/metrics"
	"github.com/calderaops/procurehub-backend/pkg/outbox"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

const uxBillableSourceItem = "ux_billable_items_source_item"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service reconciles paid purchase orders into pass-through billable items.
// All operations are idempotent: the existence check runs first and the
// unique index on (source_type, source_id, cart_item_id) backstops races.
type Service interface {
	CreateFromPurchaseOrder(ctx context.Context, input CreateInput) (*CreateResult, error)
	SyncMissing(ctx context.Context, companyID uuid.UUID) (*SyncResult, error)
	ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error)
	List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters ListFilters) (*BillableList, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	log           *logger.Logger
	metrics       *metrics.BillbackMetrics
	markupPercent decimal.Decimal
	batchSize     int
	now           func() time.Time
}

// CreateInput identifies the purchase order to bill back.
type CreateInput struct {
	PurchaseOrderID uuid.UUID
	ActorUserID     uuid.UUID
	ActorRole       string
}

// CreateResult reports how many billable items one PO produced.
type CreateResult struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	Created         int       `json:"created"`
	Skipped         int       `json:"skipped"`
}

// SyncResult summarizes one reconciliation sweep for a company.
type SyncResult struct {
	CompanyID     uuid.UUID `json:"company_id"`
	PaidPOs       int       `json:"paid_pos"`
	AlreadyBilled int       `json:"already_billed"`
	Synced        int       `json:"synced"`
	Failed        int       `json:"failed"`
}

// ListFilters narrows the billable item list query.
type ListFilters struct {
	Status     *enums.BillableItemStatus
	SourceType *enums.BillableSourceType
	PropertyID *uuid.UUID
}

// BillableList wraps the paginated billable items plus the next page cursor.
type BillableList struct {
	Items      []models.BillableItem `json:"items"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// BillbackCreatedEvent is emitted when a PO's billable items materialize.
type BillbackCreatedEvent struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	OrderID         uuid.UUID `json:"order_id"`
	CompanyID       uuid.UUID `json:"company_id"`
	ItemCount       int       `json:"item_count"`
	CostCents       int       `json:"cost_cents"`
}

// NewService builds a billback reconciler with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, log *logger.Logger, m *metrics.BillbackMetrics, cfg config.BillbackConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("billback repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	markup, err := decimal.NewFromString(cfg.DefaultMarkupPercent)
	if err != nil {
		return nil, fmt.Errorf("invalid default markup percent %q: %w", cfg.DefaultMarkupPercent, err)
	}
	batchSize := cfg.SyncBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		log:           log,
		metrics:       m,
		markupPercent: markup,
		batchSize:     batchSize,
		now:           time.Now,
	}, nil
}

func (s *service) CreateFromPurchaseOrder(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if input.PurchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}

	var result *CreateResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		po, err := repo.FindPurchaseOrder(ctx, input.PurchaseOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}
		if len(po.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNoLinkedItems, "purchase order has no linked items").
				WithDetails(map[string]any{"purchase_order_id": po.ID})
		}

		order, err := repo.FindOrder(ctx, po.OriginalOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
		}

		billed, err := repo.FindBilledCartItemIDs(ctx, enums.BillableSourcePurchaseOrder, po.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing billables")
		}

		var (
			toCreate  []models.BillableItem
			costCents int
			skipped   int
		)
		for _, item := range po.Items {
			if _, exists := billed[item.ID]; exists {
				skipped++
				continue
			}
			itemID := item.ID
			cost := item.TotalPriceCents
			markup := s.markupCents(cost)
			toCreate = append(toCreate, models.BillableItem{
				CompanyID:     order.CompanyID,
				SourceType:    enums.BillableSourcePurchaseOrder,
				SourceID:      po.ID,
				CartItemID:    &itemID,
				PropertyID:    order.PropertyID,
				Description:   item.Name,
				CostCents:     cost,
				MarkupCents:   markup,
				TotalCents:    cost + markup,
				MarkupPercent: s.markupPercent,
				Status:        enums.BillableItemStatusPending,
			})
			costCents += cost
		}

		if len(toCreate) > 0 {
			if err := repo.CreateBillableItems(ctx, toCreate); err != nil {
				if db.IsUniqueViolation(err, uxBillableSourceItem) {
					// A concurrent sync billed this PO between our existence
					// check and the insert.
					return pkgerrors.New(pkgerrors.CodeStateConflict, "billable items already exist for purchase order").
						WithDetails(map[string]any{"purchase_order_id": po.ID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create billable items")
			}
		}

		result = &CreateResult{
			PurchaseOrderID: po.ID,
			Created:         len(toCreate),
			Skipped:         skipped,
		}
		s.metrics.IncCreated(string(enums.BillableSourcePurchaseOrder), len(toCreate))
		s.metrics.IncSkipped(string(enums.BillableSourcePurchaseOrder), skipped)

		if len(toCreate) == 0 {
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventBillbackCreated,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			Version:       1,
			Data: BillbackCreatedEvent{
				PurchaseOrderID: po.ID,
				OrderID:         order.ID,
				CompanyID:       order.CompanyID,
				ItemCount:       len(toCreate),
				CostCents:       costCents,
			},
		}
		if input.ActorUserID != uuid.Nil {
			event.Actor = &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole}
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SyncMissing bills every paid PO that has no billable items yet. Per-PO
// failures are collected and logged rather than aborting the sweep, so the
// returned result is meaningful even when the error is non-nil.
func (s *service) SyncMissing(ctx context.Context, companyID uuid.UUID) (*SyncResult, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}

	paid, err := s.repo.FindPaidPurchaseOrders(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paid purchase orders")
	}

	billed := make(map[uuid.UUID]struct{}, len(paid))
	for start := 0; start < len(paid); start += s.batchSize {
		end := start + s.batchSize
		if end > len(paid) {
			end = len(paid)
		}
		ids := make([]uuid.UUID, 0, end-start)
		for _, po := range paid[start:end] {
			ids = append(ids, po.ID)
		}
		batch, err := s.repo.FindBilledSourceIDs(ctx, enums.BillableSourcePurchaseOrder, ids)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list existing billables")
		}
		for id := range batch {
			billed[id] = struct{}{}
		}
	}

	result := &SyncResult{CompanyID: companyID, PaidPOs: len(paid)}
	var errs error
	for _, po := range paid {
		if _, exists := billed[po.ID]; exists {
			result.AlreadyBilled++
			continue
		}
		poCtx := s.log.WithField(ctx, "purchase_order_id", po.ID.String())
		if _, err := s.CreateFromPurchaseOrder(poCtx, CreateInput{PurchaseOrderID: po.ID}); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeNoLinkedItems {
				s.log.Warn(poCtx, "skipping paid purchase order with no linked items")
				continue
			}
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("sync po %s: %w", po.ID, err))
			s.log.Error(poCtx, "billback sync failed for purchase order", err)
			continue
		}
		result.Synced++
	}
	return result, errs
}

func (s *service) ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error) {
	if companyID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}

	var updated int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		n, err := repo.ResetPendingMarkups(ctx, companyID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset pending markups")
		}
		updated = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *service) List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters ListFilters) (*BillableList, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	list, err := s.repo.ListBillableItems(ctx, companyID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billable items")
	}
	return list, nil
}

func (s *service) markupCents(costCents int) int {
	if s.markupPercent.IsZero() {
		return 0
	}
	return int(s.markupPercent.
		Mul(decimal.NewFromInt(int64(costCents))).
		Div(decimal.NewFromInt(100)).
		Round(0).IntPart())
}
