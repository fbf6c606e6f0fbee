package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushealth/clinic/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Create(ctx context.Context, n *Notification) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, type, message, stock_id, read)
		VALUES ($1,$2,$3,$4,false)`,
		n.ID, n.Type, n.Message, n.StockID,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	where := ""
	if unreadOnly {
		where = ` WHERE NOT read`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notification`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, type, message, stock_id, read, created_at
		FROM notification`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notifs []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Message, &n.StockID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notifs = append(notifs, &n)
	}
	return notifs, total, nil
}

func (r *repoPG) MarkRead(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE notification SET read = true WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) MarkAllRead(ctx context.Context) (int, error) {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE notification SET read = true WHERE NOT read`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
