package student

import "context"

// Repository persists cached student directory records.
type Repository interface {
	GetByStudentID(ctx context.Context, studentID string) (*Info, error)
	Upsert(ctx context.Context, info *Info) error
	List(ctx context.Context, limit, offset int) ([]*Info, int, error)
}
