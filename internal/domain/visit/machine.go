package visit

import "fmt"

// Event is a workflow action that moves a visit between statuses.
type Event string

const (
	EventSubmitVitals     Event = "SUBMIT_VITALS"
	EventSubmitDiagnosis  Event = "SUBMIT_DIAGNOSIS"
	EventOrderLabTests    Event = "ORDER_LAB_TESTS"
	EventSubmitLabResults Event = "SUBMIT_LAB_RESULTS"
	EventDispense         Event = "DISPENSE"
)

// transitions is the full status machine. Any (status, event) pair not
// listed here is a precondition violation and surfaces as a 409.
var transitions = map[Status]map[Event]Status{
	StatusWaitingForNurse: {
		EventSubmitVitals: StatusReadyForDoctor,
	},
	StatusReadyForDoctor: {
		EventSubmitDiagnosis: StatusReadyForPharmacy,
		EventOrderLabTests:   StatusSentToLab,
	},
	StatusSentToLab: {
		EventSubmitLabResults: StatusLabResultsReady,
	},
	StatusLabResultsReady: {
		// After reviewing results the doctor finalizes; re-ordering labs
		// from here is not allowed.
		EventSubmitDiagnosis: StatusReadyForPharmacy,
	},
	StatusReadyForPharmacy: {
		EventDispense: StatusCompleted,
	},
}

// InvalidTransitionError reports an event applied to a visit in the wrong
// status.
type InvalidTransitionError struct {
	From  Status
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %s not allowed in status %s", e.Event, e.From)
}

// Transition returns the status a visit moves to when event fires, or an
// InvalidTransitionError if the event is not allowed from the current status.
func Transition(from Status, event Event) (Status, error) {
	if next, ok := transitions[from][event]; ok {
		return next, nil
	}
	return "", &InvalidTransitionError{From: from, Event: event}
}
