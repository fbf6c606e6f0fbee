package notification

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushealth/clinic/internal/domain/stock"
)

type mockRepo struct {
	notifs []*Notification
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.notifs = append(m.notifs, n)
	return nil
}

func (m *mockRepo) List(_ context.Context, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	var result []*Notification
	for _, n := range m.notifs {
		if !unreadOnly || !n.Read {
			result = append(result, n)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) MarkRead(_ context.Context, id uuid.UUID) (bool, error) {
	for _, n := range m.notifs {
		if n.ID == id {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) MarkAllRead(_ context.Context) (int, error) {
	count := 0
	for _, n := range m.notifs {
		if !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

type mockStocks struct {
	expiring []*stock.Item
	low      []*stock.Item
	err      error
}

func (m *mockStocks) ExpiringBefore(_ context.Context, cutoff time.Time) ([]*stock.Item, error) {
	return m.expiring, m.err
}

func (m *mockStocks) LowStock(_ context.Context) ([]*stock.Item, error) {
	return m.low, m.err
}

func item(name string, qty int, reorder *int, expiry *time.Time) *stock.Item {
	return &stock.Item{
		ID: uuid.New(), MedicineName: name, Quantity: qty, Unit: "tablet",
		ReorderLevel: reorder, ExpiryDate: expiry,
	}
}

func TestScan_RaisesFindings(t *testing.T) {
	expiry := time.Now().Add(48 * time.Hour)
	reorder := 10
	stocks := &mockStocks{
		expiring: []*stock.Item{item("Insulin", 20, nil, &expiry)},
		low:      []*stock.Item{item("Paracetamol", 5, &reorder, nil)},
	}
	repo := &mockRepo{}
	svc := NewService(repo, stocks, 30*24*time.Hour, nil, zerolog.Nop())

	created, err := svc.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 2 || len(repo.notifs) != 2 {
		t.Fatalf("expected 2 notifications, got %d", created)
	}

	byType := map[string]*Notification{}
	for _, n := range repo.notifs {
		byType[n.Type] = n
	}
	if n := byType[TypeExpiryWarning]; n == nil || !strings.Contains(n.Message, "Insulin") {
		t.Errorf("unexpected expiry notification: %+v", n)
	}
	if n := byType[TypeLowStockWarning]; n == nil || !strings.Contains(n.Message, "reorder at 10") {
		t.Errorf("unexpected low stock notification: %+v", n)
	}
}

func TestScan_NoDedup(t *testing.T) {
	reorder := 10
	stocks := &mockStocks{low: []*stock.Item{item("Paracetamol", 5, &reorder, nil)}}
	repo := &mockRepo{}
	svc := NewService(repo, stocks, 30*24*time.Hour, nil, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := svc.Scan(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(repo.notifs) != 3 {
		t.Errorf("repeated scans should append, got %d notifications", len(repo.notifs))
	}
}

func TestScan_OutOfStockMessage(t *testing.T) {
	stocks := &mockStocks{low: []*stock.Item{item("Zinc", 0, nil, nil)}}
	repo := &mockRepo{}
	svc := NewService(repo, stocks, time.Hour, nil, zerolog.Nop())

	if _, err := svc.Scan(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(repo.notifs[0].Message, "out of stock") {
		t.Errorf("unexpected message: %q", repo.notifs[0].Message)
	}
}

func TestScan_StockError(t *testing.T) {
	stocks := &mockStocks{err: fmt.Errorf("db down")}
	svc := NewService(&mockRepo{}, stocks, time.Hour, nil, zerolog.Nop())
	if _, err := svc.Scan(context.Background()); err == nil {
		t.Error("expected error when stock source fails")
	}
}

func TestMarkRead(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockStocks{}, time.Hour, nil, zerolog.Nop())

	n := &Notification{Type: TypeLowStockWarning, Message: "x"}
	_ = repo.Create(context.Background(), n)

	if err := svc.MarkRead(context.Background(), n.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !n.Read {
		t.Error("expected notification marked read")
	}
	if err := svc.MarkRead(context.Background(), uuid.New()); err == nil {
		t.Error("expected error for unknown notification")
	}
}

func TestMarkAllRead(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, &mockStocks{}, time.Hour, nil, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_ = repo.Create(context.Background(), &Notification{Type: TypeLowStockWarning, Message: "x"})
	}
	n, err := svc.MarkAllRead(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 updated, got %d", n)
	}

	unread, total, _ := svc.List(context.Background(), true, 20, 0)
	if len(unread) != 0 || total != 0 {
		t.Errorf("expected no unread notifications, got %d", total)
	}
}
