package visit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/campushealth/clinic/internal/domain/stock"
)

type mockRepo struct {
	visits        map[uuid.UUID]*Visit
	nurseNotes    map[uuid.UUID]*NurseNote
	doctorNotes   map[uuid.UUID]*DoctorNote
	labResults    map[uuid.UUID]*LabResult
	pharmacyNotes map[uuid.UUID][]*PharmacyNote
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		visits:        make(map[uuid.UUID]*Visit),
		nurseNotes:    make(map[uuid.UUID]*NurseNote),
		doctorNotes:   make(map[uuid.UUID]*DoctorNote),
		labResults:    make(map[uuid.UUID]*LabResult),
		pharmacyNotes: make(map[uuid.UUID][]*PharmacyNote),
	}
}

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = time.Now()
	m.visits[v.ID] = v
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return v, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	v, ok := m.visits[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	v.Status = status
	v.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepo) AssignDoctor(_ context.Context, id, doctorID uuid.UUID) error {
	v, ok := m.visits[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	v.AssignedDoctorID = &doctorID
	return nil
}

func (m *mockRepo) ListByStatus(_ context.Context, statuses []Status, limit, offset int) ([]*Visit, int, error) {
	want := map[Status]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var result []*Visit
	for _, v := range m.visits {
		if want[v.Status] {
			result = append(result, v)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Visit, int, error) {
	var result []*Visit
	for _, v := range m.visits {
		result = append(result, v)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByStudent(_ context.Context, studentID string, limit, offset int) ([]*Visit, int, error) {
	var result []*Visit
	for _, v := range m.visits {
		if v.StudentID == studentID {
			result = append(result, v)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateNurseNote(_ context.Context, n *NurseNote) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.nurseNotes[n.VisitID] = n
	return nil
}

func (m *mockRepo) GetNurseNote(_ context.Context, visitID uuid.UUID) (*NurseNote, error) {
	n, ok := m.nurseNotes[visitID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return n, nil
}

func (m *mockRepo) UpsertDoctorNote(_ context.Context, n *DoctorNote) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
		n.CreatedAt = time.Now()
	}
	n.UpdatedAt = time.Now()
	m.doctorNotes[n.VisitID] = n
	return nil
}

func (m *mockRepo) GetDoctorNote(_ context.Context, visitID uuid.UUID) (*DoctorNote, error) {
	n, ok := m.doctorNotes[visitID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return n, nil
}

func (m *mockRepo) CreateLabResult(_ context.Context, r *LabResult) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.labResults[r.VisitID] = r
	return nil
}

func (m *mockRepo) GetLabResult(_ context.Context, visitID uuid.UUID) (*LabResult, error) {
	r, ok := m.labResults[visitID]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockRepo) CreatePharmacyNote(_ context.Context, n *PharmacyNote) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.pharmacyNotes[n.VisitID] = append(m.pharmacyNotes[n.VisitID], n)
	return nil
}

func (m *mockRepo) GetPharmacyNotes(_ context.Context, visitID uuid.UUID) ([]*PharmacyNote, error) {
	return m.pharmacyNotes[visitID], nil
}

// mockDispenser mimics the stock service's guarded decrement.
type mockDispenser struct {
	quantities map[string]int
	ids        map[string]uuid.UUID
}

func newMockDispenser(quantities map[string]int) *mockDispenser {
	d := &mockDispenser{quantities: quantities, ids: make(map[string]uuid.UUID)}
	for name := range quantities {
		d.ids[name] = uuid.New()
	}
	return d
}

func (d *mockDispenser) Dispense(_ context.Context, medicineName string, qty int) (uuid.UUID, error) {
	have, ok := d.quantities[medicineName]
	if !ok {
		return uuid.Nil, fmt.Errorf("medicine %q: %w", medicineName, stock.ErrNotFound)
	}
	if have < qty {
		return uuid.Nil, fmt.Errorf("%w for %q: requested %d, available %d",
			stock.ErrInsufficientStock, medicineName, qty, have)
	}
	d.quantities[medicineName] = have - qty
	return d.ids[medicineName], nil
}

func newTestService(quantities map[string]int) (*Service, *mockRepo, *mockDispenser) {
	repo := newMockRepo()
	dispenser := newMockDispenser(quantities)
	return NewService(repo, dispenser, nil, nil), repo, dispenser
}

func validVitals() VitalsInput {
	return VitalsInput{BloodPressure: "118/76", Temperature: "38.9", Pulse: "92", Weight: "63"}
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, err := svc.Register(context.Background(), "S1001", "fever and chills")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != StatusWaitingForNurse {
		t.Errorf("expected WAITING_FOR_NURSE, got %s", v.Status)
	}

	if _, err := svc.Register(context.Background(), "", "fever"); err == nil {
		t.Error("expected error for missing student_id")
	}
	if _, err := svc.Register(context.Background(), "S1001", ""); err == nil {
		t.Error("expected error for missing reason")
	}
}

func TestSubmitVitals(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")

	note, err := svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse-akua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.RecordedBy != "nurse-akua" {
		t.Errorf("unexpected note: %+v", note)
	}
	if repo.visits[v.ID].Status != StatusReadyForDoctor {
		t.Errorf("expected READY_FOR_DOCTOR, got %s", repo.visits[v.ID].Status)
	}
}

func TestSubmitVitals_MissingVital(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")

	in := validVitals()
	in.Pulse = ""
	if _, err := svc.SubmitVitals(context.Background(), v.ID, in, "nurse"); err == nil {
		t.Error("expected validation error for missing pulse")
	}
}

func TestSubmitVitals_WrongStatus(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")
	if _, err := svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse")
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Errorf("expected InvalidTransitionError on double vitals, got %v", err)
	}
}

func TestSubmitDiagnosis_DirectToPharmacy(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "headache")
	_, _ = svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse")

	doctorID := uuid.New()
	rx := "paracetamol 500mg tds x3d"
	note, err := svc.SubmitDiagnosis(context.Background(), v.ID, DiagnosisInput{
		Diagnosis:    "tension headache",
		Prescription: &rx,
	}, doctorID, "dr-owusu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if note.RequestLabTest {
		t.Error("expected no lab request")
	}
	if repo.visits[v.ID].Status != StatusReadyForPharmacy {
		t.Errorf("expected READY_FOR_PHARMACY, got %s", repo.visits[v.ID].Status)
	}
	if got := repo.visits[v.ID].AssignedDoctorID; got == nil || *got != doctorID {
		t.Errorf("expected visit assigned to %s, got %v", doctorID, got)
	}
}

func TestSubmitDiagnosis_LabOrderRequiresTests(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")
	_, _ = svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse")

	_, err := svc.SubmitDiagnosis(context.Background(), v.ID, DiagnosisInput{
		Diagnosis:      "suspected malaria",
		RequestLabTest: true,
	}, uuid.New(), "dr-owusu")
	if err == nil {
		t.Error("expected error for lab request without tests")
	}
}

func TestSubmitLabResults_WrongStatus(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")

	_, err := svc.SubmitLabResults(context.Background(), v.ID, LabResultsInput{
		Results: []TestResult{{Category: "Parasitology", TestName: "MP", Result: "negative"}},
	}, "lab-tech")
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Errorf("expected InvalidTransitionError, got %v", err)
	}
}

func TestDispense_InsufficientStockRollsBack(t *testing.T) {
	svc, repo, dispenser := newTestService(map[string]int{
		"Paracetamol": 100,
		"Artemether":  2,
	})
	v, _ := svc.Register(context.Background(), "S1001", "fever")
	_, _ = svc.SubmitVitals(context.Background(), v.ID, validVitals(), "nurse")
	_, _ = svc.SubmitDiagnosis(context.Background(), v.ID, DiagnosisInput{Diagnosis: "malaria"}, uuid.New(), "dr")

	_, err := svc.Dispense(context.Background(), v.ID, DispenseInput{Lines: []DispenseLine{
		{MedicineName: "Paracetamol", Quantity: 10},
		{MedicineName: "Artemether", Quantity: 6},
	}}, "pharm")
	if !errors.Is(err, stock.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !strings.Contains(err.Error(), "Artemether") {
		t.Errorf("expected error to name the medicine, got %q", err)
	}
	if repo.visits[v.ID].Status != StatusReadyForPharmacy {
		t.Errorf("failed dispense must keep status READY_FOR_PHARMACY, got %s", repo.visits[v.ID].Status)
	}
	if dispenser.quantities["Artemether"] != 2 {
		t.Errorf("Artemether stock must be untouched, got %d", dispenser.quantities["Artemether"])
	}
	// The mock has no transaction semantics, so the Paracetamol decrement is
	// not asserted here; atomicity is the guarded-update plus RunInTx pair.
}

func TestDispense_EmptyLines(t *testing.T) {
	svc, _, _ := newTestService(nil)
	v, _ := svc.Register(context.Background(), "S1001", "fever")
	if _, err := svc.Dispense(context.Background(), v.ID, DispenseInput{}, "pharm"); err == nil {
		t.Error("expected error for empty dispense")
	}
}

func TestVisitNotFound(t *testing.T) {
	svc, _, _ := newTestService(nil)
	if _, err := svc.SubmitVitals(context.Background(), uuid.New(), validVitals(), "n"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetDetail(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDoctorQueue_IncludesLabResultsReady(t *testing.T) {
	svc, repo, _ := newTestService(nil)
	fresh, _ := svc.Register(context.Background(), "S1", "fever")
	_, _ = svc.SubmitVitals(context.Background(), fresh.ID, validVitals(), "nurse")

	returning, _ := svc.Register(context.Background(), "S2", "fever")
	repo.visits[returning.ID].Status = StatusLabResultsReady

	elsewhere, _ := svc.Register(context.Background(), "S3", "fever")
	_ = elsewhere // still WAITING_FOR_NURSE

	queue, total, err := svc.ListDoctorQueue(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(queue) != 2 {
		t.Errorf("expected 2 visits in doctor queue, got %d", total)
	}
}

// Full malaria walkthrough: reception to pharmacy with a lab round trip.
func TestMalariaVisit_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, repo, dispenser := newTestService(map[string]int{
		"Artemether/Lumefantrine": 50,
		"Paracetamol":             200,
	})

	v, err := svc.Register(ctx, "S2024001", "fever, chills, headache")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.SubmitVitals(ctx, v.ID, VitalsInput{
		BloodPressure: "110/70", Temperature: "39.2", Pulse: "96", Weight: "58",
	}, "nurse-akua"); err != nil {
		t.Fatalf("vitals: %v", err)
	}

	// Doctor suspects malaria, orders labs.
	doctorID := uuid.New()
	note, err := svc.SubmitDiagnosis(ctx, v.ID, DiagnosisInput{
		Diagnosis:      "suspected malaria",
		RequestLabTest: true,
		LabTests: []TestCategory{
			{Category: "Parasitology", Tests: []string{"Malaria Parasite", "Blood Film"}},
		},
	}, doctorID, "dr-owusu")
	if err != nil {
		t.Fatalf("diagnosis: %v", err)
	}
	if repo.visits[v.ID].Status != StatusSentToLab {
		t.Fatalf("expected SENT_TO_LAB, got %s", repo.visits[v.ID].Status)
	}
	if got := repo.visits[v.ID].AssignedDoctorID; got == nil || *got != doctorID {
		t.Fatalf("expected visit assigned to ordering doctor, got %v", got)
	}

	if _, err := svc.SubmitLabResults(ctx, v.ID, LabResultsInput{
		Results: []TestResult{
			{Category: "Parasitology", TestName: "Malaria Parasite", Result: "positive (++)", NormalRange: "negative"},
			{Category: "Parasitology", TestName: "Blood Film", Result: "P. falciparum seen"},
		},
	}, "lab-kofi"); err != nil {
		t.Fatalf("lab results: %v", err)
	}
	if repo.visits[v.ID].Status != StatusLabResultsReady {
		t.Fatalf("expected LAB_RESULTS_READY, got %s", repo.visits[v.ID].Status)
	}

	// Final diagnosis after results; original lab order is retained.
	rx := "AL 80/480 bd x3d, paracetamol prn"
	final, err := svc.SubmitDiagnosis(ctx, v.ID, DiagnosisInput{
		Diagnosis:    "uncomplicated P. falciparum malaria",
		Prescription: &rx,
	}, doctorID, "dr-owusu")
	if err != nil {
		t.Fatalf("final diagnosis: %v", err)
	}
	if final.ID != note.ID {
		t.Error("expected the doctor note to be revised in place")
	}
	if got := repo.visits[v.ID].AssignedDoctorID; got == nil || *got != doctorID {
		t.Errorf("expected assignment unchanged after revision, got %v", got)
	}
	if len(final.LabTests) == 0 {
		t.Error("expected original lab order retained on revised note")
	}
	if repo.visits[v.ID].Status != StatusReadyForPharmacy {
		t.Fatalf("expected READY_FOR_PHARMACY, got %s", repo.visits[v.ID].Status)
	}

	notes, err := svc.Dispense(ctx, v.ID, DispenseInput{Lines: []DispenseLine{
		{MedicineName: "Artemether/Lumefantrine", Quantity: 24},
		{MedicineName: "Paracetamol", Quantity: 12},
	}}, "pharm-esi")
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 pharmacy notes, got %d", len(notes))
	}
	if repo.visits[v.ID].Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", repo.visits[v.ID].Status)
	}
	if dispenser.quantities["Artemether/Lumefantrine"] != 26 {
		t.Errorf("expected AL stock 26, got %d", dispenser.quantities["Artemether/Lumefantrine"])
	}

	detail, err := svc.GetDetail(ctx, v.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if detail.NurseNote == nil || detail.DoctorNote == nil || detail.LabResult == nil || len(detail.PharmacyNotes) != 2 {
		t.Errorf("expected complete detail, got %+v", detail)
	}
}
