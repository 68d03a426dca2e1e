package carts

import (
	"time"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/pkg/db/models"
	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// CartFilters narrows cart list queries.
type CartFilters struct {
	Status     *enums.CartStatus
	Type       *enums.CartType
	OwnerID    *uuid.UUID
	PropertyID *uuid.UUID
}

// CartSummary is the list-view projection of a cart.
type CartSummary struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Type       enums.CartType   `json:"type"`
	Status     enums.CartStatus `json:"status"`
	TotalCents int              `json:"total_cents"`
	ItemCount  int              `json:"item_count"`
	PropertyID *uuid.UUID       `json:"property_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CartList is one page of carts plus the cursor for the next page.
type CartList struct {
	Carts      []CartSummary `json:"carts"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// CartDetail is a cart with its effective status. For submitted carts the
// status proxies the linked order's derived status.
type CartDetail struct {
	Cart            models.Cart `json:"cart"`
	EffectiveStatus string      `json:"effective_status"`
	OrderID         *uuid.UUID  `json:"order_id,omitempty"`
}

// CreateCartInput describes a new draft cart and its initial items.
type CreateCartInput struct {
	CompanyID         uuid.UUID
	OwnerID           uuid.UUID
	PropertyID        *uuid.UUID
	Name              string
	Type              enums.CartType
	ScheduleDays      []string
	ScheduleStartDate *time.Time
	Items             []ItemInput
}

// ItemInput describes one cart line.
type ItemInput struct {
	Name           string
	SKU            string
	Quantity       int
	UnitPriceCents int
	VendorID       *uuid.UUID
}

// UpdateItemInput patches one cart line. Nil fields are left untouched.
type UpdateItemInput struct {
	CartID         uuid.UUID
	ItemID         uuid.UUID
	Name           *string
	SKU            *string
	Quantity       *int
	UnitPriceCents *int
	VendorID       *uuid.UUID
}

// SubmitInput converts a cart into a trackable order.
type SubmitInput struct {
	CartID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
}

// DeleteInput removes a cart. CascadeOrder controls whether an already
// converted cart takes its order down with it or leaves the order as the
// historical record.
type DeleteInput struct {
	CartID       uuid.UUID
	CascadeOrder bool
}
