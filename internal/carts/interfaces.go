package carts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

// Repository defines the persistence surface the cart service needs. Cart
// submission crosses into order creation, so the order write path lives here
// too and runs inside the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	FindCartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindOrderByCartID(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
	ListCarts(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters CartFilters) (*CartList, error)
	UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	DeleteOrphanItems(ctx context.Context, cartID uuid.UUID) error
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	LinkItemsToOrder(ctx context.Context, cartID, orderID uuid.UUID) error
}
