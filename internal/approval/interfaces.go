package approval

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// Repository defines the persistence surface the approval engine needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateItemApproval(ctx context.Context, itemID uuid.UUID, approval enums.ItemApprovalStatus, reason *string) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}
