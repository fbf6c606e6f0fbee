// Package visit implements the clinic visit lifecycle: registration at
// reception, nurse vitals, doctor diagnosis, optional lab work, and pharmacy
// dispensing. Every visit moves through an explicit status machine; each
// stage appends its own note record.
package visit

import (
	"time"

	"github.com/google/uuid"
)

// Status is a visit's position in the clinic workflow.
type Status string

const (
	StatusWaitingForNurse  Status = "WAITING_FOR_NURSE"
	StatusReadyForDoctor   Status = "READY_FOR_DOCTOR"
	StatusSentToLab        Status = "SENT_TO_LAB"
	StatusLabResultsReady  Status = "LAB_RESULTS_READY"
	StatusReadyForPharmacy Status = "READY_FOR_PHARMACY"
	StatusCompleted        Status = "COMPLETED"
)

var validStatuses = map[Status]bool{
	StatusWaitingForNurse:  true,
	StatusReadyForDoctor:   true,
	StatusSentToLab:        true,
	StatusLabResultsReady:  true,
	StatusReadyForPharmacy: true,
	StatusCompleted:        true,
}

func ValidStatus(s Status) bool { return validStatuses[s] }

// Visit is one student's trip through the clinic. AssignedDoctorID is set
// when a doctor first records a diagnosis and stays with the visit through
// the lab round trip.
type Visit struct {
	ID               uuid.UUID  `json:"id"`
	StudentID        string     `json:"student_id"`
	Reason           string     `json:"reason"`
	Status           Status     `json:"status"`
	AssignedDoctorID *uuid.UUID `json:"assigned_doctor_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NurseNote holds the vitals taken at triage. All four vital fields are
// required before the visit can move to the doctor.
type NurseNote struct {
	ID            uuid.UUID `json:"id"`
	VisitID       uuid.UUID `json:"visit_id"`
	BloodPressure string    `json:"blood_pressure"`
	Temperature   string    `json:"temperature"`
	Pulse         string    `json:"pulse"`
	Weight        string    `json:"weight"`
	Notes         *string   `json:"notes,omitempty"`
	RecordedBy    string    `json:"recorded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// DoctorNote is the consultation record. When lab tests are requested the
// ordered panels are stored as structured JSON; the diagnosis may then be
// revised after results come back, which updates this note in place.
type DoctorNote struct {
	ID             uuid.UUID      `json:"id"`
	VisitID        uuid.UUID      `json:"visit_id"`
	Diagnosis      string         `json:"diagnosis"`
	Prescription   *string        `json:"prescription,omitempty"`
	RequestLabTest bool           `json:"request_lab_test"`
	LabTests       []TestCategory `json:"lab_tests,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	RecordedBy     string         `json:"recorded_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// LabResult holds the results for every test ordered on a visit.
type LabResult struct {
	ID         uuid.UUID    `json:"id"`
	VisitID    uuid.UUID    `json:"visit_id"`
	Results    []TestResult `json:"results"`
	Notes      *string      `json:"notes,omitempty"`
	RecordedBy string       `json:"recorded_by"`
	CreatedAt  time.Time    `json:"created_at"`
}

// PharmacyNote records one dispensed line item. A dispense of several
// medicines writes one row per line, all in the same transaction as the
// stock decrements.
type PharmacyNote struct {
	ID           uuid.UUID `json:"id"`
	VisitID      uuid.UUID `json:"visit_id"`
	StockID      uuid.UUID `json:"stock_id"`
	MedicineName string    `json:"medicine_name"`
	Quantity     int       `json:"quantity"`
	Notes        *string   `json:"notes,omitempty"`
	RecordedBy   string    `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Detail aggregates a visit with everything recorded against it.
type Detail struct {
	Visit         *Visit          `json:"visit"`
	NurseNote     *NurseNote      `json:"nurse_note,omitempty"`
	DoctorNote    *DoctorNote     `json:"doctor_note,omitempty"`
	LabResult     *LabResult      `json:"lab_result,omitempty"`
	PharmacyNotes []*PharmacyNote `json:"pharmacy_notes,omitempty"`
}
