package stock

import (
	"time"

	"github.com/google/uuid"
)

// Item is a pharmacy stock line: one medicine with its on-hand quantity,
// pricing and reorder metadata.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	MedicineName string     `json:"medicine_name"`
	Quantity     int        `json:"quantity"`
	Unit         string     `json:"unit"`
	Price        float64    `json:"price"`
	CostPrice    float64    `json:"cost_price"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	ReorderLevel *int       `json:"reorder_level,omitempty"`
	BatchNumber  *string    `json:"batch_number,omitempty"`
	Manufacturer *string    `json:"manufacturer,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Activity actions recorded in the stock audit trail.
const (
	ActionCreated = "CREATED"
	ActionUpdated = "UPDATED"
	ActionDeleted = "DELETED"
)

// Activity is an append-only audit record of a stock mutation. Snapshots hold
// the item state before and after the change; dispensing is not recorded here
// (it lives in pharmacy notes).
type Activity struct {
	ID          uuid.UUID `json:"id"`
	StockID     uuid.UUID `json:"stock_id"`
	Action      string    `json:"action"`
	PerformedBy string    `json:"performed_by"`
	OldSnapshot *Item     `json:"old_snapshot,omitempty"`
	NewSnapshot *Item     `json:"new_snapshot,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
