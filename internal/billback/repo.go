package billback

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a billback repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", poID).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindPaidPurchaseOrders(ctx context.Context, companyID uuid.UUID) ([]models.PurchaseOrder, error) {
	var pos []models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = purchase_orders.original_order_id").
		Where("orders.company_id = ?", companyID).
		Where("purchase_orders.payment_date IS NOT NULL").
		Order("purchase_orders.created_at ASC").
		Find(&pos).Error
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (r *repository) FindBilledSourceIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if len(sourceIDs) == 0 {
		return map[uuid.UUID]struct{}{}, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BillableItem{}).
		Distinct("source_id").
		Where("source_type = ?", sourceType).
		Where("source_id IN ?", sourceIDs).
		Pluck("source_id", &ids).Error
	if err != nil {
		return nil, err
	}
	billed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		billed[id] = struct{}{}
	}
	return billed, nil
}

func (r *repository) FindBilledCartItemIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.BillableItem{}).
		Where("source_type = ?", sourceType).
		Where("source_id = ?", sourceID).
		Where("cart_item_id IS NOT NULL").
		Pluck("cart_item_id", &ids).Error
	if err != nil {
		return nil, err
	}
	billed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		billed[id] = struct{}{}
	}
	return billed, nil
}

func (r *repository) CreateBillableItems(ctx context.Context, items []models.BillableItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ListBillableItems(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters ListFilters) (*BillableList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.BillableItem{}).
		Where("company_id = ?", companyID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.SourceType != nil {
		query = query.Where("source_type = ?", *filters.SourceType)
	}
	if filters.PropertyID != nil {
		query = query.Where("property_id = ?", *filters.PropertyID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.BillableItem
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &BillableList{}
	hasMore := len(rows) > normalized
	if hasMore {
		rows = rows[:normalized]
	}
	list.Items = rows

	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return list, nil
}

func (r *repository) ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BillableItem{}).
		Where("company_id = ?", companyID).
		Where("status = ?", enums.BillableItemStatusPending).
		Where("markup_cents <> 0 OR total_cents <> cost_cents OR markup_percent <> 0").
		Updates(map[string]any{
			"markup_cents":   0,
			"markup_percent": 0,
			"total_cents":    gorm.Expr("cost_cents"),
		})
	return result.RowsAffected, result.Error
}
