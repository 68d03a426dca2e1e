package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
	"github.com/calderaops/procurehub-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  cart_id TEXT,
  company_id TEXT NOT NULL,
  submitted_by TEXT NOT NULL,
  property_id TEXT,
  total_cents INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending_approval',
  status_history TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT,
  order_id TEXT,
  name TEXT NOT NULL,
  sku TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_price_cents INTEGER NOT NULL,
  vendor_id TEXT,
  approval_status TEXT NOT NULL DEFAULT 'pending',
  rejection_reason TEXT,
  purchase_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchaseOrders := `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  original_order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'issued',
  carrier TEXT,
  tracking_number TEXT,
  eta DATETIME,
  payment_date DATETIME,
  delivery_proof_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(purchaseOrders).Error)
	return db
}

func createTestOrder(t *testing.T, db *gorm.DB, companyID uuid.UUID, totalCents int, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		CompanyID:   companyID,
		SubmittedBy: uuid.New(),
		TotalCents:  totalCents,
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func createTestItem(t *testing.T, db *gorm.DB, order *models.Order, name string, qty int) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		ID:              uuid.New(),
		OrderID:         &order.ID,
		Name:            name,
		SKU:             "SKU-" + name,
		Quantity:        qty,
		UnitPriceCents:  1000,
		TotalPriceCents: 1000 * qty,
		ApprovalStatus:  enums.ItemApprovalStatusPending,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.CreatedAt,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestRepositoryListOrders_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	companyID := uuid.New()
	now := time.Now().UTC()
	older := createTestOrder(t, db, companyID, 2000, enums.OrderStatusPendingApproval, now.Add(-time.Hour))
	newer := createTestOrder(t, db, companyID, 3000, enums.OrderStatusApproved, now)
	createTestItem(t, db, older, "Filters", 2)
	createTestItem(t, db, newer, "Bulbs", 3)

	list, err := repo.ListOrders(context.Background(), companyID, pagination.Params{Limit: 1}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.NotEmpty(t, list.NextCursor)
	assert.Equal(t, newer.ID, list.Orders[0].ID)
	assert.Equal(t, 3000, list.Orders[0].TotalCents)
	assert.Equal(t, 1, list.Orders[0].ItemCount)

	second, err := repo.ListOrders(context.Background(), companyID, pagination.Params{Limit: 1, Cursor: list.NextCursor}, OrderFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestRepositoryListOrders_statusFilterAndCompanyScope(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	companyID := uuid.New()
	now := time.Now().UTC()
	createTestOrder(t, db, companyID, 1000, enums.OrderStatusPendingApproval, now.Add(-time.Minute))
	approved := createTestOrder(t, db, companyID, 2000, enums.OrderStatusApproved, now)
	createTestOrder(t, db, uuid.New(), 9000, enums.OrderStatusApproved, now)

	status := enums.OrderStatusApproved
	list, err := repo.ListOrders(context.Background(), companyID, pagination.Params{Limit: 10}, OrderFilters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, approved.ID, list.Orders[0].ID)
}

func TestRepositoryFindOrder_preloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), 5000, enums.OrderStatusPendingApproval, time.Now().UTC())
	createTestItem(t, db, order, "Door Hinges", 5)

	found, err := repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Door Hinges", found.Items[0].Name)

	_, err = repo.FindOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateOrder_writesSnapshot(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := createTestOrder(t, db, uuid.New(), 1000, enums.OrderStatusPendingApproval, time.Now().UTC())

	err := repo.UpdateOrder(context.Background(), order.ID, map[string]any{
		"status": enums.OrderStatusApproved,
	})
	require.NoError(t, err)

	found, err := repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusApproved, found.Status)
}
