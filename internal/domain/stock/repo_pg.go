package stock

import (
	"context"
	"encoding/json"
	"time"

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

const itemCols = `id, medicine_name, quantity, unit, price, cost_price,
	expiry_date, reorder_level, batch_number, manufacturer, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, item *Item) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock (
			id, medicine_name, quantity, unit, price, cost_price,
			expiry_date, reorder_level, batch_number, manufacturer
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		item.ID, item.MedicineName, item.Quantity, item.Unit, item.Price, item.CostPrice,
		item.ExpiryDate, item.ReorderLevel, item.BatchNumber, item.Manufacturer,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM stock WHERE id = $1`, id))
}

func (r *repoPG) GetByName(ctx context.Context, medicineName string) (*Item, error) {
	return scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemCols+` FROM stock WHERE lower(medicine_name) = lower($1)`, medicineName))
}

func (r *repoPG) Update(ctx context.Context, item *Item) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE stock SET
			medicine_name=$2, quantity=$3, unit=$4, price=$5, cost_price=$6,
			expiry_date=$7, reorder_level=$8, batch_number=$9, manufacturer=$10,
			updated_at=NOW()
		WHERE id = $1`,
		item.ID, item.MedicineName, item.Quantity, item.Unit, item.Price, item.CostPrice,
		item.ExpiryDate, item.ReorderLevel, item.BatchNumber, item.Manufacturer,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM stock WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stock`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM stock ORDER BY medicine_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectItems(rows)
	return items, total, err
}

func (r *repoPG) Decrement(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE stock SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2`,
		id, qty,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM stock WHERE expiry_date IS NOT NULL AND expiry_date <= $1 ORDER BY expiry_date`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *repoPG) FindLowStock(ctx context.Context) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+itemCols+` FROM stock
		WHERE (reorder_level IS NOT NULL AND quantity <= reorder_level)
		   OR (reorder_level IS NULL AND quantity <= 0)
		ORDER BY medicine_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func (r *repoPG) AddActivity(ctx context.Context, act *Activity) error {
	act.ID = uuid.New()
	oldSnap, err := marshalSnapshot(act.OldSnapshot)
	if err != nil {
		return err
	}
	newSnap, err := marshalSnapshot(act.NewSnapshot)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_activity (id, stock_id, action, performed_by, old_snapshot, new_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		act.ID, act.StockID, act.Action, act.PerformedBy, oldSnap, newSnap,
	)
	return err
}

func (r *repoPG) ListActivity(ctx context.Context, stockID *uuid.UUID, limit, offset int) ([]*Activity, int, error) {
	where := ""
	countArgs := []interface{}{}
	listArgs := []interface{}{limit, offset}
	if stockID != nil {
		where = ` WHERE stock_id = $1`
		countArgs = append(countArgs, *stockID)
		listArgs = []interface{}{*stockID, limit, offset}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stock_activity`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := `SELECT id, stock_id, action, performed_by, old_snapshot, new_snapshot, created_at
		FROM stock_activity` + where + ` ORDER BY created_at DESC`
	if stockID != nil {
		listSQL += ` LIMIT $2 OFFSET $3`
	} else {
		listSQL += ` LIMIT $1 OFFSET $2`
	}

	rows, err := r.conn(ctx).Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var acts []*Activity
	for rows.Next() {
		var a Activity
		var oldSnap, newSnap []byte
		if err := rows.Scan(&a.ID, &a.StockID, &a.Action, &a.PerformedBy, &oldSnap, &newSnap, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		if a.OldSnapshot, err = unmarshalSnapshot(oldSnap); err != nil {
			return nil, 0, err
		}
		if a.NewSnapshot, err = unmarshalSnapshot(newSnap); err != nil {
			return nil, 0, err
		}
		acts = append(acts, &a)
	}
	return acts, total, nil
}

func marshalSnapshot(item *Item) ([]byte, error) {
	if item == nil {
		return nil, nil
	}
	return json.Marshal(item)
}

func unmarshalSnapshot(raw []byte) (*Item, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var item Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(
		&i.ID, &i.MedicineName, &i.Quantity, &i.Unit, &i.Price, &i.CostPrice,
		&i.ExpiryDate, &i.ReorderLevel, &i.BatchNumber, &i.Manufacturer, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func collectItems(rows pgx.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		var i Item
		err := rows.Scan(
			&i.ID, &i.MedicineName, &i.Quantity, &i.Unit, &i.Price, &i.CostPrice,
			&i.ExpiryDate, &i.ReorderLevel, &i.BatchNumber, &i.Manufacturer, &i.CreatedAt, &i.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	return items, nil
}
