package visit

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists visits and their per-stage notes.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	AssignDoctor(ctx context.Context, id, doctorID uuid.UUID) error
	ListByStatus(ctx context.Context, statuses []Status, limit, offset int) ([]*Visit, int, error)
	List(ctx context.Context, limit, offset int) ([]*Visit, int, error)
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Visit, int, error)

	CreateNurseNote(ctx context.Context, n *NurseNote) error
	GetNurseNote(ctx context.Context, visitID uuid.UUID) (*NurseNote, error)

	// UpsertDoctorNote inserts the note on first diagnosis and updates it in
	// place when the doctor finalizes after lab results.
	UpsertDoctorNote(ctx context.Context, n *DoctorNote) error
	GetDoctorNote(ctx context.Context, visitID uuid.UUID) (*DoctorNote, error)

	CreateLabResult(ctx context.Context, r *LabResult) error
	GetLabResult(ctx context.Context, visitID uuid.UUID) (*LabResult, error)

	CreatePharmacyNote(ctx context.Context, n *PharmacyNote) error
	GetPharmacyNotes(ctx context.Context, visitID uuid.UUID) ([]*PharmacyNote, error)
}
