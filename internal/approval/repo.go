package approval

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an approval repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("PurchaseOrders").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateItemApproval(ctx context.Context, itemID uuid.UUID, approval enums.ItemApprovalStatus, reason *string) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"approval_status":  approval,
			"rejection_reason": reason,
		}).Error
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
