package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists stock items and their activity trail.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	GetByName(ctx context.Context, medicineName string) (*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Item, int, error)

	// Decrement atomically subtracts qty from the item's quantity, guarded so
	// the quantity never goes negative. Returns true if the row was updated,
	// false if the guard rejected it (insufficient stock).
	Decrement(ctx context.Context, id uuid.UUID, qty int) (bool, error)

	// FindExpiringBefore returns items whose expiry date falls on or before
	// the cutoff.
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Item, error)

	// FindLowStock returns items at or below their reorder level, or out of
	// stock entirely when no reorder level is set.
	FindLowStock(ctx context.Context) ([]*Item, error)

	AddActivity(ctx context.Context, act *Activity) error
	ListActivity(ctx context.Context, stockID *uuid.UUID, limit, offset int) ([]*Activity, int, error)
}
