package carts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/internal/status"
	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	pkgerrors "github.com/calderaops/procurehub-backend/pkg/errors"
	"github.com/calderaops/procurehub-backend/pkg/outbox"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
	"github.com/calderaops/procurehub-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages draft carts up to and including the moment they convert
// into orders. Content mutations stop at submission.
type Service interface {
	Create(ctx context.Context, input CreateCartInput) (*models.Cart, error)
	Get(ctx context.Context, cartID uuid.UUID) (*CartDetail, error)
	List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters CartFilters) (*CartList, error)
	AddItem(ctx context.Context, cartID uuid.UUID, input ItemInput) (*models.CartItem, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, next enums.CartStatus) error
	Submit(ctx context.Context, input SubmitInput) (*models.Order, error)
	Delete(ctx context.Context, input DeleteInput) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// CartSubmittedEvent is emitted when a cart converts into an order.
type CartSubmittedEvent struct {
	CartID    uuid.UUID `json:"cart_id"`
	OrderID   uuid.UUID `json:"order_id"`
	CompanyID uuid.UUID `json:"company_id"`
	ItemCount int       `json:"item_count"`
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("carts repository required")
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

func (s *service) Create(ctx context.Context, input CreateCartInput) (*models.Cart, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart name required")
	}
	cartType := input.Type
	if cartType == "" {
		cartType = enums.CartTypeStandard
	}
	if !cartType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart type")
	}
	if cartType == enums.CartTypeStandard && (len(input.ScheduleDays) > 0 || input.ScheduleStartDate != nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "schedule fields only apply to recurring or scheduled carts")
	}
	for _, item := range input.Items {
		if err := validateItemInput(item); err != nil {
			return nil, err
		}
	}

	cart := &models.Cart{
		CompanyID:         input.CompanyID,
		OwnerID:           input.OwnerID,
		PropertyID:        input.PropertyID,
		Name:              strings.TrimSpace(input.Name),
		Type:              cartType,
		Status:            enums.CartStatusDraft,
		ScheduleDays:      pq.StringArray(input.ScheduleDays),
		ScheduleStartDate: input.ScheduleStartDate,
	}
	for _, item := range input.Items {
		cart.Items = append(cart.Items, models.CartItem{
			Name:            strings.TrimSpace(item.Name),
			SKU:             item.SKU,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.Quantity * item.UnitPriceCents,
			VendorID:        item.VendorID,
			ApprovalStatus:  enums.ItemApprovalStatusPending,
		})
		cart.TotalCents += item.Quantity * item.UnitPriceCents
	}
	cart.ItemCount = len(cart.Items)

	var created *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		out, err := repo.CreateCart(ctx, cart)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, cartID uuid.UUID) (*CartDetail, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}

	cart, err := s.repo.FindCart(ctx, cartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	detail := &CartDetail{Cart: *cart}
	var order *models.Order
	if cart.Status == enums.CartStatusSubmitted {
		order, err = s.repo.FindOrderByCartID(ctx, cartID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked order")
		}
		if order != nil {
			orderID := order.ID
			detail.OrderID = &orderID
		}
	}
	detail.EffectiveStatus = status.ForCart(*cart, order)
	return detail, nil
}

func (s *service) List(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters CartFilters) (*CartList, error) {
	if companyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id required")
	}
	list, err := s.repo.ListCarts(ctx, companyID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carts")
	}
	return list, nil
}

func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input ItemInput) (*models.CartItem, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if err := validateItemInput(input); err != nil {
		return nil, err
	}

	var created *models.CartItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mutableCart(ctx, repo, cartID)
		if err != nil {
			return err
		}

		id := cart.ID
		item := &models.CartItem{
			CartID:          &id,
			Name:            strings.TrimSpace(input.Name),
			SKU:             input.SKU,
			Quantity:        input.Quantity,
			UnitPriceCents:  input.UnitPriceCents,
			TotalPriceCents: input.Quantity * input.UnitPriceCents,
			VendorID:        input.VendorID,
			ApprovalStatus:  enums.ItemApprovalStatusPending,
		}
		if _, err := repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
		created = item
		return s.recalcTotals(ctx, repo, cart.ID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) error {
	if input.CartID == uuid.Nil || input.ItemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id and item id required")
	}
	if input.Quantity != nil && *input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPriceCents != nil && *input.UnitPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mutableCart(ctx, repo, input.CartID)
		if err != nil {
			return err
		}

		var current *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].ID == input.ItemID {
				current = &cart.Items[i]
				break
			}
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		updates := map[string]any{}
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.SKU != nil {
			updates["sku"] = *input.SKU
		}
		if input.VendorID != nil {
			updates["vendor_id"] = *input.VendorID
		}

		quantity := current.Quantity
		unitPrice := current.UnitPriceCents
		if input.Quantity != nil {
			quantity = *input.Quantity
			updates["quantity"] = quantity
		}
		if input.UnitPriceCents != nil {
			unitPrice = *input.UnitPriceCents
			updates["unit_price_cents"] = unitPrice
		}
		if input.Quantity != nil || input.UnitPriceCents != nil {
			updates["total_price_cents"] = quantity * unitPrice
		}
		if len(updates) == 0 {
			return nil
		}

		if err := repo.UpdateItem(ctx, input.ItemID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return s.recalcTotals(ctx, repo, cart.ID)
	})
}

func (s *service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	if cartID == uuid.Nil || itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id and item id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mutableCart(ctx, repo, cartID)
		if err != nil {
			return err
		}

		found := false
		for _, item := range cart.Items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}

		if err := repo.DeleteItem(ctx, itemID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return s.recalcTotals(ctx, repo, cart.ID)
	})
}

// UpdateStatus toggles a cart between draft and ready_for_review. Submission
// happens only through Submit.
func (s *service) UpdateStatus(ctx context.Context, cartID uuid.UUID, next enums.CartStatus) error {
	if cartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if !next.Mutable() {
		return pkgerrors.New(pkgerrors.CodeValidation, "status must be draft or ready_for_review")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mutableCart(ctx, repo, cartID)
		if err != nil {
			return err
		}
		if cart.Status == next {
			return nil
		}
		if err := repo.UpdateCart(ctx, cart.ID, map[string]any{"status": next}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart status")
		}
		return nil
	})
}

func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Order, error) {
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor user id required")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.mutableCart(ctx, repo, input.CartID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot submit an empty cart")
		}

		cartID := cart.ID
		order := &models.Order{
			CartID:        &cartID,
			CompanyID:     cart.CompanyID,
			SubmittedBy:   input.ActorUserID,
			PropertyID:    cart.PropertyID,
			TotalCents:    cart.TotalCents,
			Status:        enums.OrderStatusPendingApproval,
			StatusHistory: types.StatusHistory{}.Append(enums.OrderStatusPendingApproval, s.now()),
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.LinkItemsToOrder(ctx, cart.ID, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link items to order")
		}
		if err := repo.UpdateCart(ctx, cart.ID, map[string]any{"status": enums.CartStatusSubmitted}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark cart submitted")
		}

		created = order
		event := outbox.DomainEvent{
			EventType:     enums.EventCartSubmitted,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
			Data: CartSubmittedEvent{
				CartID:    cart.ID,
				OrderID:   order.ID,
				CompanyID: cart.CompanyID,
				ItemCount: len(cart.Items),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if input.CartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.FindCart(ctx, input.CartID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		order, err := repo.FindOrderByCartID(ctx, cart.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load linked order")
		}

		if order != nil && input.CascadeOrder {
			// Deleting the order cascades to its item rows.
			if err := repo.DeleteOrder(ctx, order.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete linked order")
			}
		}
		if err := repo.DeleteOrphanItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart items")
		}
		if err := repo.DeleteCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}
		return nil
	})
}

// mutableCart loads a cart and enforces the draft/ready_for_review guard.
func (s *service) mutableCart(ctx context.Context, repo Repository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindCart(ctx, cartID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !cart.Status.Mutable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer editable").
			WithDetails(map[string]any{"status": cart.Status})
	}
	return cart, nil
}

func (s *service) recalcTotals(ctx context.Context, repo Repository, cartID uuid.UUID) error {
	items, err := repo.FindCartItems(ctx, cartID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	total := 0
	for _, item := range items {
		total += item.TotalPriceCents
	}
	if err := repo.UpdateCart(ctx, cartID, map[string]any{
		"total_cents": total,
		"item_count":  len(items),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart totals")
	}
	return nil
}

func validateItemInput(input ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item name required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPriceCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	return nil
}
