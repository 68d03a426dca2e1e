package types

import (
	"time"

	"github.com/calderaops/procurehub-backend/pkg/enums"
)

// StatusChange is a single audit entry in an order's status history.
type StatusChange struct {
	Status enums.OrderStatus `json:"status"`
	Date   time.Time         `json:"date"`
}

// StatusHistory is the append-only audit log stored on an order. It is never
// read back to derive the current status; derivation always works from the
// live item and purchase-order state.
type StatusHistory []StatusChange

// Append returns the history with a new entry added, preserving order.
func (h StatusHistory) Append(status enums.OrderStatus, at time.Time) StatusHistory {
	return append(h, StatusChange{Status: status, Date: at.UTC()})
}

// Latest returns the most recent entry, or nil when the history is empty.
func (h StatusHistory) Latest() *StatusChange {
	if len(h) == 0 {
		return nil
	}
	return &h[len(h)-1]
}
