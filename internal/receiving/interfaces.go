package receiving

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
)

// Repository defines the persistence surface the receiving tracker needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdatePurchaseOrder(ctx context.Context, poID uuid.UUID, updates map[string]any) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
