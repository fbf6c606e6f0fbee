package visit

import (
	"context"
	"encoding/json"

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

const visitCols = `id, student_id, reason, status, assigned_doctor_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, student_id, reason, status)
		VALUES ($1,$2,$3,$4)`,
		v.ID, v.StudentID, v.Reason, v.Status,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET assigned_doctor_id = $2, updated_at = NOW() WHERE id = $1`, id, doctorID)
	return err
}

func (r *repoPG) ListByStatus(ctx context.Context, statuses []Status, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit WHERE status = ANY($1)`, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit WHERE status = ANY($1) ORDER BY created_at LIMIT $2 OFFSET $3`,
		statuses, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	visits, err := collectVisits(rows)
	return visits, total, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM visit`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	visits, err := collectVisits(rows)
	return visits, total, err
}

func (r *repoPG) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit WHERE student_id = $1`, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+visitCols+` FROM visit WHERE student_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	visits, err := collectVisits(rows)
	return visits, total, err
}

func (r *repoPG) CreateNurseNote(ctx context.Context, n *NurseNote) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO nurse_note (id, visit_id, blood_pressure, temperature, pulse, weight, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.ID, n.VisitID, n.BloodPressure, n.Temperature, n.Pulse, n.Weight, n.Notes, n.RecordedBy,
	)
	return err
}

func (r *repoPG) GetNurseNote(ctx context.Context, visitID uuid.UUID) (*NurseNote, error) {
	var n NurseNote
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, blood_pressure, temperature, pulse, weight, notes, recorded_by, created_at
		FROM nurse_note WHERE visit_id = $1`, visitID).
		Scan(&n.ID, &n.VisitID, &n.BloodPressure, &n.Temperature, &n.Pulse, &n.Weight,
			&n.Notes, &n.RecordedBy, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) UpsertDoctorNote(ctx context.Context, n *DoctorNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	labTests, err := json.Marshal(n.LabTests)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_note (id, visit_id, diagnosis, prescription, request_lab_test, lab_tests, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (visit_id) DO UPDATE SET
			diagnosis = EXCLUDED.diagnosis,
			prescription = EXCLUDED.prescription,
			request_lab_test = EXCLUDED.request_lab_test,
			lab_tests = EXCLUDED.lab_tests,
			notes = EXCLUDED.notes,
			recorded_by = EXCLUDED.recorded_by,
			updated_at = NOW()`,
		n.ID, n.VisitID, n.Diagnosis, n.Prescription, n.RequestLabTest, labTests, n.Notes, n.RecordedBy,
	)
	return err
}

func (r *repoPG) GetDoctorNote(ctx context.Context, visitID uuid.UUID) (*DoctorNote, error) {
	var n DoctorNote
	var labTests []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, diagnosis, prescription, request_lab_test, lab_tests, notes, recorded_by, created_at, updated_at
		FROM doctor_note WHERE visit_id = $1`, visitID).
		Scan(&n.ID, &n.VisitID, &n.Diagnosis, &n.Prescription, &n.RequestLabTest, &labTests,
			&n.Notes, &n.RecordedBy, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(labTests) > 0 {
		if err := json.Unmarshal(labTests, &n.LabTests); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

func (r *repoPG) CreateLabResult(ctx context.Context, lr *LabResult) error {
	lr.ID = uuid.New()
	results, err := json.Marshal(lr.Results)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_result (id, visit_id, results, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5)`,
		lr.ID, lr.VisitID, results, lr.Notes, lr.RecordedBy,
	)
	return err
}

func (r *repoPG) GetLabResult(ctx context.Context, visitID uuid.UUID) (*LabResult, error) {
	var lr LabResult
	var results []byte
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, results, notes, recorded_by, created_at
		FROM lab_result WHERE visit_id = $1`, visitID).
		Scan(&lr.ID, &lr.VisitID, &results, &lr.Notes, &lr.RecordedBy, &lr.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &lr.Results); err != nil {
			return nil, err
		}
	}
	return &lr, nil
}

func (r *repoPG) CreatePharmacyNote(ctx context.Context, n *PharmacyNote) error {
	n.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO pharmacy_note (id, visit_id, stock_id, medicine_name, quantity, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.VisitID, n.StockID, n.MedicineName, n.Quantity, n.Notes, n.RecordedBy,
	)
	return err
}

func (r *repoPG) GetPharmacyNotes(ctx context.Context, visitID uuid.UUID) ([]*PharmacyNote, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, stock_id, medicine_name, quantity, notes, recorded_by, created_at
		FROM pharmacy_note WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*PharmacyNote
	for rows.Next() {
		var n PharmacyNote
		if err := rows.Scan(&n.ID, &n.VisitID, &n.StockID, &n.MedicineName, &n.Quantity,
			&n.Notes, &n.RecordedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	if err := row.Scan(&v.ID, &v.StudentID, &v.Reason, &v.Status, &v.AssignedDoctorID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisits(rows pgx.Rows) ([]*Visit, error) {
	var visits []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.StudentID, &v.Reason, &v.Status, &v.AssignedDoctorID, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		visits = append(visits, &v)
	}
	return visits, nil
}
