package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushealth/clinic/internal/platform/db"
)

// ErrNotFound is returned when a visit does not exist.
var ErrNotFound = errors.New("visit not found")

// Dispenser subtracts stock for one medicine line. Implemented by the stock
// service; the decrement joins the caller's transaction through the context.
type Dispenser interface {
	Dispense(ctx context.Context, medicineName string, qty int) (uuid.UUID, error)
}

// Recorder receives domain metric events. May be nil.
type Recorder interface {
	RecordTransition(event string)
	RecordDispense(outcome string)
}

type Service struct {
	repo      Repository
	dispenser Dispenser
	pool      *pgxpool.Pool
	metrics   Recorder
}

func NewService(repo Repository, dispenser Dispenser, pool *pgxpool.Pool, metrics Recorder) *Service {
	return &Service{repo: repo, dispenser: dispenser, pool: pool, metrics: metrics}
}

func (s *Service) recordTransition(event Event) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(event))
	}
}

// Register opens a visit for a student. The caller resolves the student
// against the directory first; registration only needs the ID.
func (s *Service) Register(ctx context.Context, studentID, reason string) (*Visit, error) {
	if studentID == "" {
		return nil, fmt.Errorf("student_id is required")
	}
	if reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	v := &Visit{
		StudentID: studentID,
		Reason:    reason,
		Status:    StatusWaitingForNurse,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return v, nil
}

// GetDetail returns the visit plus every note recorded against it. Missing
// notes are simply absent; only a missing visit is an error.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	d := &Detail{Visit: v}
	if n, err := s.repo.GetNurseNote(ctx, id); err == nil {
		d.NurseNote = n
	}
	if n, err := s.repo.GetDoctorNote(ctx, id); err == nil {
		d.DoctorNote = n
	}
	if r, err := s.repo.GetLabResult(ctx, id); err == nil {
		d.LabResult = r
	}
	if notes, err := s.repo.GetPharmacyNotes(ctx, id); err == nil {
		d.PharmacyNotes = notes
	}
	return d, nil
}

// Queue listings per station. The doctor queue includes both fresh triaged
// visits and those returning with lab results.

func (s *Service) ListNurseQueue(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByStatus(ctx, []Status{StatusWaitingForNurse}, limit, offset)
}

func (s *Service) ListDoctorQueue(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByStatus(ctx, []Status{StatusReadyForDoctor, StatusLabResultsReady}, limit, offset)
}

func (s *Service) ListLabQueue(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByStatus(ctx, []Status{StatusSentToLab}, limit, offset)
}

func (s *Service) ListPharmacyQueue(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByStatus(ctx, []Status{StatusReadyForPharmacy}, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByStudent(ctx, studentID, limit, offset)
}

// VitalsInput is the nurse triage submission.
type VitalsInput struct {
	BloodPressure string  `json:"blood_pressure"`
	Temperature   string  `json:"temperature"`
	Pulse         string  `json:"pulse"`
	Weight        string  `json:"weight"`
	Notes         *string `json:"notes,omitempty"`
}

func (in *VitalsInput) validate() error {
	if in.BloodPressure == "" || in.Temperature == "" || in.Pulse == "" || in.Weight == "" {
		return fmt.Errorf("blood_pressure, temperature, pulse and weight are all required")
	}
	return nil
}

// SubmitVitals records the nurse note and moves the visit to the doctor, in
// one transaction.
func (s *Service) SubmitVitals(ctx context.Context, visitID uuid.UUID, in VitalsInput, nurse string) (*NurseNote, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, ErrNotFound
	}
	next, err := Transition(v.Status, EventSubmitVitals)
	if err != nil {
		return nil, err
	}

	note := &NurseNote{
		VisitID:       visitID,
		BloodPressure: in.BloodPressure,
		Temperature:   in.Temperature,
		Pulse:         in.Pulse,
		Weight:        in.Weight,
		Notes:         in.Notes,
		RecordedBy:    nurse,
	}
	err = db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.CreateNurseNote(ctx, note); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, visitID, next)
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(EventSubmitVitals)
	return note, nil
}

// DiagnosisInput is the doctor consultation submission. RequestLabTest routes
// the visit to the lab instead of the pharmacy.
type DiagnosisInput struct {
	Diagnosis      string         `json:"diagnosis"`
	Prescription   *string        `json:"prescription,omitempty"`
	RequestLabTest bool           `json:"request_lab_test"`
	LabTests       []TestCategory `json:"lab_tests,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
}

// SubmitDiagnosis writes or revises the doctor note and advances the visit.
// From READY_FOR_DOCTOR the doctor may order labs; from LAB_RESULTS_READY
// only a final diagnosis is accepted. The first diagnosis pins the doctor to
// the visit so the same name shows up when results come back.
func (s *Service) SubmitDiagnosis(ctx context.Context, visitID uuid.UUID, in DiagnosisInput, doctorID uuid.UUID, doctor string) (*DoctorNote, error) {
	if in.Diagnosis == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}
	event := EventSubmitDiagnosis
	if in.RequestLabTest {
		if err := ValidateTestCategories(in.LabTests); err != nil {
			return nil, err
		}
		event = EventOrderLabTests
	}

	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, ErrNotFound
	}
	next, err := Transition(v.Status, event)
	if err != nil {
		return nil, err
	}

	note := &DoctorNote{
		VisitID:        visitID,
		Diagnosis:      in.Diagnosis,
		Prescription:   in.Prescription,
		RequestLabTest: in.RequestLabTest,
		LabTests:       in.LabTests,
		Notes:          in.Notes,
		RecordedBy:     doctor,
	}
	if existing, err := s.repo.GetDoctorNote(ctx, visitID); err == nil {
		note.ID = existing.ID
		// Keep the original lab order on the revised note.
		if !in.RequestLabTest && len(note.LabTests) == 0 {
			note.LabTests = existing.LabTests
		}
	}

	err = db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.UpsertDoctorNote(ctx, note); err != nil {
			return err
		}
		if v.AssignedDoctorID == nil && doctorID != uuid.Nil {
			if err := s.repo.AssignDoctor(ctx, visitID, doctorID); err != nil {
				return err
			}
		}
		return s.repo.UpdateStatus(ctx, visitID, next)
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(event)
	return note, nil
}

// LabResultsInput is the lab submission for all ordered tests.
type LabResultsInput struct {
	Results []TestResult `json:"results"`
	Notes   *string      `json:"notes,omitempty"`
}

// SubmitLabResults records results and queues the visit back to the doctor.
func (s *Service) SubmitLabResults(ctx context.Context, visitID uuid.UUID, in LabResultsInput, tech string) (*LabResult, error) {
	if err := ValidateTestResults(in.Results); err != nil {
		return nil, err
	}
	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, ErrNotFound
	}
	next, err := Transition(v.Status, EventSubmitLabResults)
	if err != nil {
		return nil, err
	}

	result := &LabResult{
		VisitID:    visitID,
		Results:    in.Results,
		Notes:      in.Notes,
		RecordedBy: tech,
	}
	err = db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.CreateLabResult(ctx, result); err != nil {
			return err
		}
		return s.repo.UpdateStatus(ctx, visitID, next)
	})
	if err != nil {
		return nil, err
	}
	s.recordTransition(EventSubmitLabResults)
	return result, nil
}

// DispenseLine is one medicine in a pharmacy dispense.
type DispenseLine struct {
	MedicineName string  `json:"medicine_name"`
	Quantity     int     `json:"quantity"`
	Notes        *string `json:"notes,omitempty"`
}

// DispenseInput is the pharmacy submission closing out a visit.
type DispenseInput struct {
	Lines []DispenseLine `json:"lines"`
}

// Dispense decrements stock for every line, writes one pharmacy note per
// line, and completes the visit. The whole operation is one transaction: if
// any line has insufficient stock, nothing is dispensed and the visit stays
// in READY_FOR_PHARMACY.
func (s *Service) Dispense(ctx context.Context, visitID uuid.UUID, in DispenseInput, pharmacist string) ([]*PharmacyNote, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("at least one dispense line is required")
	}
	for _, line := range in.Lines {
		if line.MedicineName == "" {
			return nil, fmt.Errorf("medicine_name is required on every line")
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for %q", line.MedicineName)
		}
	}

	v, err := s.repo.GetByID(ctx, visitID)
	if err != nil {
		return nil, ErrNotFound
	}
	next, err := Transition(v.Status, EventDispense)
	if err != nil {
		return nil, err
	}

	var notes []*PharmacyNote
	err = db.RunInTx(ctx, s.pool, func(ctx context.Context) error {
		for _, line := range in.Lines {
			stockID, err := s.dispenser.Dispense(ctx, line.MedicineName, line.Quantity)
			if err != nil {
				return err
			}
			note := &PharmacyNote{
				VisitID:      visitID,
				StockID:      stockID,
				MedicineName: line.MedicineName,
				Quantity:     line.Quantity,
				Notes:        line.Notes,
				RecordedBy:   pharmacist,
			}
			if err := s.repo.CreatePharmacyNote(ctx, note); err != nil {
				return err
			}
			notes = append(notes, note)
		}
		return s.repo.UpdateStatus(ctx, visitID, next)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDispense("failed")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordDispense("completed")
	}
	s.recordTransition(EventDispense)
	return notes, nil
}
