package billback

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

// Repository defines the persistence surface the billback reconciler needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindPaidPurchaseOrders(ctx context.Context, companyID uuid.UUID) ([]models.PurchaseOrder, error)
	FindBilledSourceIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceIDs []uuid.UUID) (map[uuid.UUID]struct{}, error)
	FindBilledCartItemIDs(ctx context.Context, sourceType enums.BillableSourceType, sourceID uuid.UUID) (map[uuid.UUID]struct{}, error)
	CreateBillableItems(ctx context.Context, items []models.BillableItem) error
	ResetPendingMarkups(ctx context.Context, companyID uuid.UUID) (int64, error)
	ListBillableItems(ctx context.Context, companyID uuid.UUID, params pagination.Params, filters ListFilters) (*BillableList, error)
}
