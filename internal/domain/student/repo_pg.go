package student

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

const infoCols = `id, student_id, full_name, gender, birth_date, program, phone, email, fetched_at, created_at`

func (r *repoPG) GetByStudentID(ctx context.Context, studentID string) (*Info, error) {
	return scanInfo(r.conn(ctx).QueryRow(ctx,
		`SELECT `+infoCols+` FROM student_info WHERE student_id = $1`, studentID))
}

func (r *repoPG) Upsert(ctx context.Context, info *Info) error {
	if info.ID == uuid.Nil {
		info.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO student_info (id, student_id, full_name, gender, birth_date, program, phone, email, fetched_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (student_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			gender = EXCLUDED.gender,
			birth_date = EXCLUDED.birth_date,
			program = EXCLUDED.program,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			fetched_at = EXCLUDED.fetched_at
		RETURNING id, created_at`,
		info.ID, info.StudentID, info.FullName, info.Gender, info.BirthDate,
		info.Program, info.Phone, info.Email, info.FetchedAt,
	).Scan(&info.ID, &info.CreatedAt)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Info, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM student_info`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+infoCols+` FROM student_info ORDER BY full_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var infos []*Info
	for rows.Next() {
		var i Info
		if err := rows.Scan(&i.ID, &i.StudentID, &i.FullName, &i.Gender, &i.BirthDate,
			&i.Program, &i.Phone, &i.Email, &i.FetchedAt, &i.CreatedAt); err != nil {
			return nil, 0, err
		}
		infos = append(infos, &i)
	}
	return infos, total, nil
}

func scanInfo(row pgx.Row) (*Info, error) {
	var i Info
	err := row.Scan(&i.ID, &i.StudentID, &i.FullName, &i.Gender, &i.BirthDate,
		&i.Program, &i.Phone, &i.Email, &i.FetchedAt, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
