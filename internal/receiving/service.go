package receiving

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/internal/status"
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

// Service walks a purchase order through its delivery chain and records
// payment, keeping the parent order's status snapshot in step.
type Service interface {
	Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error)
	RecordPayment(ctx context.Context, input PaymentInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// AdvanceInput carries one status transition for a purchase order. Shipment
// metadata may ride along with the transition that puts the PO in motion.
type AdvanceInput struct {
	PurchaseOrderID uuid.UUID
	NextStatus      enums.PurchaseOrderStatus
	ProofRef        *string
	Carrier         *string
	TrackingNumber  *string
	ETA             *time.Time
	ActorUserID     uuid.UUID
	ActorRole       string
}

// AdvanceResult reports the PO and parent-order status after a transition.
type AdvanceResult struct {
	PurchaseOrderID uuid.UUID                 `json:"purchase_order_id"`
	Status          enums.PurchaseOrderStatus `json:"status"`
	OrderID         uuid.UUID                 `json:"order_id"`
	OrderStatus     enums.OrderStatus         `json:"order_status"`
}

// PaymentInput records the payment date on a purchase order.
type PaymentInput struct {
	PurchaseOrderID uuid.UUID
	PaymentDate     time.Time
	ActorUserID     uuid.UUID
}

// PurchaseOrderAdvancedEvent is emitted on every successful transition.
type PurchaseOrderAdvancedEvent struct {
	PurchaseOrderID uuid.UUID                 `json:"purchase_order_id"`
	OrderID         uuid.UUID                 `json:"order_id"`
	From            enums.PurchaseOrderStatus `json:"from"`
	To              enums.PurchaseOrderStatus `json:"to"`
	OrderStatus     enums.OrderStatus         `json:"order_status"`
}

// NewService builds a receiving tracker with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receiving repository required")
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

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error) {
	if input.PurchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase order status")
	}

	var result *AdvanceResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		po, err := repo.FindPurchaseOrder(ctx, input.PurchaseOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}

		if !po.Status.CanAdvanceTo(input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "purchase order status must advance one step at a time").
				WithDetails(map[string]any{"from": po.Status, "to": input.NextStatus})
		}

		updates := map[string]any{"status": input.NextStatus}
		if input.NextStatus == enums.PurchaseOrderStatusReceived {
			if input.ProofRef == nil || strings.TrimSpace(*input.ProofRef) == "" {
				return pkgerrors.New(pkgerrors.CodeMissingProofOfDelivery, "proof of delivery reference required")
			}
			updates["delivery_proof_url"] = strings.TrimSpace(*input.ProofRef)
		}
		if input.Carrier != nil {
			updates["carrier"] = *input.Carrier
		}
		if input.TrackingNumber != nil {
			updates["tracking_number"] = *input.TrackingNumber
		}
		if input.ETA != nil {
			updates["eta"] = *input.ETA
		}

		if err := repo.UpdatePurchaseOrder(ctx, po.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
		}

		order, err := repo.FindOrder(ctx, po.OriginalOrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent order")
		}
		for i := range order.PurchaseOrders {
			if order.PurchaseOrders[i].ID == po.ID {
				order.PurchaseOrders[i].Status = input.NextStatus
			}
		}

		next := status.ForOrder(order.Items, order.PurchaseOrders)
		if next != order.Status {
			history := order.StatusHistory.Append(next, s.now())
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
				"status":         next,
				"status_history": history,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order status")
			}
		}

		result = &AdvanceResult{
			PurchaseOrderID: po.ID,
			Status:          input.NextStatus,
			OrderID:         order.ID,
			OrderStatus:     next,
		}

		eventType := enums.EventPurchaseOrderAdvanced
		if input.NextStatus == enums.PurchaseOrderStatusReceived {
			eventType = enums.EventPurchaseOrderReceived
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   po.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: PurchaseOrderAdvancedEvent{
				PurchaseOrderID: po.ID,
				OrderID:         order.ID,
				From:            po.Status,
				To:              input.NextStatus,
				OrderStatus:     next,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordPayment stamps the payment date on a purchase order. The billback
// reconciler treats a non-null payment date as the signal to materialize
// billable items.
func (s *service) RecordPayment(ctx context.Context, input PaymentInput) error {
	if input.PurchaseOrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if input.PaymentDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment date required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		po, err := repo.FindPurchaseOrder(ctx, input.PurchaseOrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}
		if po.Paid() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order already paid")
		}

		if err := repo.UpdatePurchaseOrder(ctx, po.ID, map[string]any{
			"payment_date": input.PaymentDate,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		return nil
	})
}
