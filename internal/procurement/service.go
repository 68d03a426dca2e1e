package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/internal/status"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service splits an approved order's unassigned items into vendor purchase
// orders. Repeated calls with disjoint subsets drive "resume procurement".
type Service interface {
	Procure(ctx context.Context, input ProcureInput) (*models.PurchaseOrder, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// ProcureInput carries one vendor-scoped procurement call.
type ProcureInput struct {
	OrderID     uuid.UUID
	VendorID    uuid.UUID
	ItemIDs     []uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// PurchaseOrderIssuedEvent is emitted when a procurement call lands.
type PurchaseOrderIssuedEvent struct {
	PurchaseOrderID uuid.UUID         `json:"purchase_order_id"`
	OrderID         uuid.UUID         `json:"order_id"`
	VendorID        uuid.UUID         `json:"vendor_id"`
	ItemCount       int               `json:"item_count"`
	OrderStatus     enums.OrderStatus `json:"order_status"`
}

// NewService builds a procurement splitter with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("procurement repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outboxSvc,
		now:    time.Now,
	}, nil
}

func (s *service) Procure(ctx context.Context, input ProcureInput) (*models.PurchaseOrder, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.ItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ids required")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.ItemIDs))
	for _, id := range input.ItemIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "duplicate item id in selection").
				WithDetails(map[string]any{"item_id": id})
		}
		seen[id] = struct{}{}
	}

	var created *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		derived := status.ForOrder(order.Items, order.PurchaseOrders)
		if !derived.Procurable() {
			return pkgerrors.New(pkgerrors.CodeOrderNotApproved, "order is not ready for procurement").
				WithDetails(map[string]any{"status": derived})
		}

		byID := make(map[uuid.UUID]int, len(order.Items))
		for i, item := range order.Items {
			byID[item.ID] = i
		}
		for _, itemID := range input.ItemIDs {
			idx, ok := byID[itemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "item does not belong to order").
					WithDetails(map[string]any{"item_id": itemID})
			}
			item := order.Items[idx]
			if item.Procured() {
				return pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "item already assigned to a purchase order").
					WithDetails(map[string]any{"item_id": itemID})
			}
			if item.ApprovalStatus != enums.ItemApprovalStatusApproved {
				return pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "item is not approved").
					WithDetails(map[string]any{"item_id": itemID})
			}
		}

		po := &models.PurchaseOrder{
			OriginalOrderID: order.ID,
			VendorID:        input.VendorID,
			Status:          enums.PurchaseOrderStatusIssued,
		}
		if _, err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}

		claimed, err := repo.ClaimItems(ctx, order.ID, po.ID, input.ItemIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim items")
		}
		if claimed != int64(len(input.ItemIDs)) {
			// A concurrent procure call won the race for at least one item.
			return pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "item claimed by a concurrent procurement").
				WithDetails(map[string]any{
					"requested": len(input.ItemIDs),
					"claimed":   claimed,
				})
		}

		for _, itemID := range input.ItemIDs {
			idx := byID[itemID]
			poID := po.ID
			order.Items[idx].PurchaseOrderID = &poID
		}
		order.PurchaseOrders = append(order.PurchaseOrders, *po)

		next := status.ForOrder(order.Items, order.PurchaseOrders)
		history := order.StatusHistory.Append(next, s.now())
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         next,
			"status_history": history,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order status")
		}

		created = po
		event := outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderIssued,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: PurchaseOrderIssuedEvent{
				PurchaseOrderID: po.ID,
				OrderID:         order.ID,
				VendorID:        input.VendorID,
				ItemCount:       len(input.ItemIDs),
				OrderStatus:     next,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
