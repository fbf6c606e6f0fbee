package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushealth/clinic/internal/domain/stock"
)

// StockSource provides the scanner's view of the stock table. Implemented by
// the stock service.
type StockSource interface {
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]*stock.Item, error)
	LowStock(ctx context.Context) ([]*stock.Item, error)
}

// Recorder receives scan finding metrics. May be nil.
type Recorder interface {
	RecordScanFinding(notificationType string)
}

// Service lists notifications and runs the stock scan that raises them.
// Scans are append-only: repeated scans over the same unhealthy stock raise
// repeated notifications.
type Service struct {
	repo    Repository
	stocks  StockSource
	window  time.Duration
	metrics Recorder
	log     zerolog.Logger
}

func NewService(repo Repository, stocks StockSource, expiryWindow time.Duration, metrics Recorder, log zerolog.Logger) *Service {
	return &Service{repo: repo, stocks: stocks, window: expiryWindow, metrics: metrics, log: log}
}

func (s *Service) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.List(ctx, unreadOnly, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	return s.repo.MarkAllRead(ctx)
}

// Scan walks the stock table once and raises a notification per finding:
// items expiring inside the warning window, and items at or below their
// reorder level. Returns the number of notifications created.
func (s *Service) Scan(ctx context.Context) (int, error) {
	created := 0

	expiring, err := s.stocks.ExpiringBefore(ctx, time.Now().Add(s.window))
	if err != nil {
		return created, fmt.Errorf("scan expiring: %w", err)
	}
	for _, item := range expiring {
		n := &Notification{
			Type:    TypeExpiryWarning,
			Message: expiryMessage(item),
			StockID: &item.ID,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return created, err
		}
		created++
		if s.metrics != nil {
			s.metrics.RecordScanFinding(TypeExpiryWarning)
		}
	}

	low, err := s.stocks.LowStock(ctx)
	if err != nil {
		return created, fmt.Errorf("scan low stock: %w", err)
	}
	for _, item := range low {
		n := &Notification{
			Type:    TypeLowStockWarning,
			Message: lowStockMessage(item),
			StockID: &item.ID,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return created, err
		}
		created++
		if s.metrics != nil {
			s.metrics.RecordScanFinding(TypeLowStockWarning)
		}
	}

	s.log.Info().Int("findings", created).Msg("stock scan complete")
	return created, nil
}

// Start runs Scan on a ticker until ctx is cancelled. A non-positive
// interval disables the background scanner.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Scan(ctx); err != nil {
					s.log.Error().Err(err).Msg("background stock scan failed")
				}
			}
		}
	}()
}

func expiryMessage(item *stock.Item) string {
	msg := fmt.Sprintf("%s expires %s", item.MedicineName, item.ExpiryDate.Format("2006-01-02"))
	if item.BatchNumber != nil {
		msg += fmt.Sprintf(" (batch %s)", *item.BatchNumber)
	}
	return msg
}

func lowStockMessage(item *stock.Item) string {
	if item.ReorderLevel != nil {
		return fmt.Sprintf("%s is low: %d %s left (reorder at %d)",
			item.MedicineName, item.Quantity, item.Unit, *item.ReorderLevel)
	}
	return fmt.Sprintf("%s is out of stock", item.MedicineName)
}
