package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification types raised by the stock scanner.
const (
	TypeExpiryWarning   = "EXPIRY_WARNING"
	TypeLowStockWarning = "LOW_STOCK_WARNING"
)

// Notification is a back-office alert. Scans append new rows without
// deduplication; staff clear them by marking read.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	StockID   *uuid.UUID `json:"stock_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
