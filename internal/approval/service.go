package approval

import (
	"context"
	"fmt"
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

// Service applies per-item approve/reject decisions to an order.
type Service interface {
	Commit(ctx context.Context, input CommitInput) (*CommitResult, error)
	ApproveAll(ctx context.Context, input BulkDecisionInput) (*CommitResult, error)
	RejectAll(ctx context.Context, input BulkDecisionInput) (*CommitResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// CommitInput carries a full decision set for an order's pending items.
type CommitInput struct {
	OrderID     uuid.UUID
	Decisions   map[uuid.UUID]status.Decision
	ActorUserID uuid.UUID
	ActorRole   string
}

// BulkDecisionInput covers approve-all/reject-all conveniences.
type BulkDecisionInput struct {
	OrderID     uuid.UUID
	Reason      *string
	ActorUserID uuid.UUID
	ActorRole   string
}

// CommitResult summarizes a committed approval pass.
type CommitResult struct {
	OrderID       uuid.UUID         `json:"order_id"`
	Status        enums.OrderStatus `json:"status"`
	ApprovedCount int               `json:"approved_count"`
	RejectedCount int               `json:"rejected_count"`
}

// ApprovalCommittedEvent is emitted when an order's approval pass lands.
type ApprovalCommittedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	Status        enums.OrderStatus `json:"status"`
	ApprovedCount int               `json:"approved_count"`
	RejectedCount int               `json:"rejected_count"`
}

// NewService builds an approval engine with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("approval repository required")
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

// Commit validates and applies the decision set in one transaction. Every
// currently pending item must be decided; the order's persisted status is
// recomputed from the updated items before the transaction commits.
func (s *service) Commit(ctx context.Context, input CommitInput) (*CommitResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	for itemID, decision := range input.Decisions {
		if itemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision item id required")
		}
		if !decision.Status.Decided() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must approve or reject").
				WithDetails(map[string]any{"item_id": itemID})
		}
	}

	var result *CommitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		known := make(map[uuid.UUID]int, len(order.Items))
		for i, item := range order.Items {
			known[item.ID] = i
		}
		for itemID := range input.Decisions {
			if _, ok := known[itemID]; !ok {
				return pkgerrors.New(pkgerrors.CodeInvalidItemSelection, "decision references unknown item").
					WithDetails(map[string]any{"item_id": itemID})
			}
		}

		if !status.ApprovalComplete(order.Items, input.Decisions) {
			undecided := []string{}
			for _, item := range order.Items {
				if status.EffectiveItemStatus(item, input.Decisions) == enums.ItemApprovalStatusPending {
					undecided = append(undecided, item.ID.String())
				}
			}
			return pkgerrors.New(pkgerrors.CodeIncompleteApproval, "every pending item needs a decision").
				WithDetails(map[string]any{"undecided_item_ids": undecided})
		}

		approved, rejected := 0, 0
		for itemID, decision := range input.Decisions {
			idx := known[itemID]
			if order.Items[idx].ApprovalStatus.Decided() {
				// Already decided in a previous pass; decisions only ever
				// cover pending items.
				continue
			}
			reason := decision.Reason
			if decision.Status != enums.ItemApprovalStatusRejected {
				reason = nil
			}
			if err := repo.UpdateItemApproval(ctx, itemID, decision.Status, reason); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item approval")
			}
			order.Items[idx].ApprovalStatus = decision.Status
			order.Items[idx].RejectionReason = reason
			if decision.Status == enums.ItemApprovalStatusApproved {
				approved++
			} else {
				rejected++
			}
		}

		derived := status.ForOrder(order.Items, order.PurchaseOrders)
		history := order.StatusHistory.Append(derived, s.now())
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":         derived,
			"status_history": history,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order status")
		}

		result = &CommitResult{
			OrderID:       order.ID,
			Status:        derived,
			ApprovedCount: approved,
			RejectedCount: rejected,
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderApprovalCommitted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: ApprovalCommittedEvent{
				OrderID:       order.ID,
				Status:        derived,
				ApprovedCount: approved,
				RejectedCount: rejected,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApproveAll stages an approve decision for every pending item and commits.
func (s *service) ApproveAll(ctx context.Context, input BulkDecisionInput) (*CommitResult, error) {
	return s.bulkDecide(ctx, input, enums.ItemApprovalStatusApproved)
}

// RejectAll stages a reject decision for every pending item and commits.
func (s *service) RejectAll(ctx context.Context, input BulkDecisionInput) (*CommitResult, error) {
	return s.bulkDecide(ctx, input, enums.ItemApprovalStatusRejected)
}

func (s *service) bulkDecide(ctx context.Context, input BulkDecisionInput, verdict enums.ItemApprovalStatus) (*CommitResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	decisions := make(map[uuid.UUID]status.Decision)
	for _, item := range order.Items {
		if item.ApprovalStatus.Decided() {
			continue
		}
		decisions[item.ID] = status.Decision{Status: verdict, Reason: input.Reason}
	}

	return s.Commit(ctx, CommitInput{
		OrderID:     input.OrderID,
		Decisions:   decisions,
		ActorUserID: input.ActorUserID,
		ActorRole:   input.ActorRole,
	})
}
