package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// OrderFilters narrows the order list query.
type OrderFilters struct {
	Status     *enums.OrderStatus
	PropertyID *uuid.UUID
}

// OrderSummary exposes the aggregated fields returned in list responses.
type OrderSummary struct {
	ID         uuid.UUID         `json:"id"`
	CartID     *uuid.UUID        `json:"cart_id,omitempty"`
	PropertyID *uuid.UUID        `json:"property_id,omitempty"`
	TotalCents int               `json:"total_cents"`
	Status     enums.OrderStatus `json:"status"`
	ItemCount  int               `json:"item_count"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full order view served to callers: the persisted record
// plus the derived status and the set of items still needing procurement.
type OrderDetail struct {
	Order           models.Order      `json:"order"`
	DerivedStatus   enums.OrderStatus `json:"derived_status"`
	UnassignedItems []models.CartItem `json:"unassigned_items"`
}
