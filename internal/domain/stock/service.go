package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushealth/clinic/internal/platform/db"
)

// ErrNotFound is returned when a stock item does not exist.
var ErrNotFound = errors.New("stock item not found")

// ErrInsufficientStock is returned when a dispense requests more units than
// are on hand. Wrapped errors name the medicine and quantities involved.
var ErrInsufficientStock = errors.New("insufficient stock")

type Service struct {
	repo Repository
	pool *pgxpool.Pool
}

func NewService(repo Repository, pool *pgxpool.Pool) *Service {
	return &Service{repo: repo, pool: pool}
}

func (s *Service) validate(item *Item) error {
	if item.MedicineName == "" {
		return fmt.Errorf("medicine_name is required")
	}
	if item.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if item.Unit == "" {
		return fmt.Errorf("unit is required")
	}
	if item.Price < 0 || item.CostPrice < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if item.ReorderLevel != nil && *item.ReorderLevel < 0 {
		return fmt.Errorf("reorder_level must not be negative")
	}
	return nil
}

// CreateItem inserts a stock item and records a CREATED activity in the same
// transaction.
func (s *Service) CreateItem(ctx context.Context, item *Item, actor string) error {
	if err := s.validate(item); err != nil {
		return err
	}
	if existing, err := s.repo.GetByName(ctx, item.MedicineName); err == nil && existing != nil {
		return fmt.Errorf("medicine %q already exists", item.MedicineName)
	}
	return db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return err
		}
		return s.repo.AddActivity(ctx, &Activity{
			StockID:     item.ID,
			Action:      ActionCreated,
			PerformedBy: actor,
			NewSnapshot: item,
		})
	})
}

func (s *Service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// UpdateItem replaces the item's fields and records an UPDATED activity with
// before/after snapshots.
func (s *Service) UpdateItem(ctx context.Context, item *Item, actor string) error {
	if err := s.validate(item); err != nil {
		return err
	}
	old, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return ErrNotFound
	}
	return db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		return s.repo.AddActivity(ctx, &Activity{
			StockID:     item.ID,
			Action:      ActionUpdated,
			PerformedBy: actor,
			OldSnapshot: old,
			NewSnapshot: item,
		})
	})
}

// DeleteItem removes the item and records a DELETED activity holding the
// final snapshot. The activity row survives the delete.
func (s *Service) DeleteItem(ctx context.Context, id uuid.UUID, actor string) error {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	return db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.repo.AddActivity(ctx, &Activity{
			StockID:     id,
			Action:      ActionDeleted,
			PerformedBy: actor,
			OldSnapshot: old,
		})
	})
}

func (s *Service) ListItems(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListActivity(ctx context.Context, stockID *uuid.UUID, limit, offset int) ([]*Activity, int, error) {
	return s.repo.ListActivity(ctx, stockID, limit, offset)
}

// Dispense subtracts qty units of the named medicine. The decrement is a
// single guarded UPDATE, so concurrent dispenses cannot drive the quantity
// negative. Callers running inside a transaction (pharmacy dispensing) get
// the decrement in that transaction via the context.
func (s *Service) Dispense(ctx context.Context, medicineName string, qty int) (uuid.UUID, error) {
	if qty <= 0 {
		return uuid.Nil, fmt.Errorf("quantity must be positive")
	}
	item, err := s.repo.GetByName(ctx, medicineName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("medicine %q: %w", medicineName, ErrNotFound)
	}
	ok, err := s.repo.Decrement(ctx, item.ID, qty)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, fmt.Errorf("%w for %q: requested %d, available %d",
			ErrInsufficientStock, medicineName, qty, item.Quantity)
	}
	return item.ID, nil
}

// ExpiringBefore and LowStock feed the notification scanner.

func (s *Service) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Item, error) {
	return s.repo.FindExpiringBefore(ctx, cutoff)
}

func (s *Service) LowStock(ctx context.Context) ([]*Item, error) {
	return s.repo.FindLowStock(ctx)
}
