package wizard

import "context"

// Step is the current position of a user inside a wizard. The zero value
// means the user is not in any flow.
type Step string

const (
	StepNone Step = ""

	// Booking flow, in strict linear order.
	StepAwaitName         Step = "await_name"
	StepAwaitDoctor       Step = "await_doctor"
	StepAwaitProcedure    Step = "await_procedure"
	StepAwaitDate         Step = "await_date"
	StepAwaitTime         Step = "await_time"
	StepAwaitConfirmation Step = "await_confirmation"

	// Admin single-field edit flows.
	StepAwaitNewName      Step = "await_new_name"
	StepAwaitNewDoctor    Step = "await_new_doctor"
	StepAwaitNewProcedure Step = "await_new_procedure"
	StepAwaitNewDate      Step = "await_new_date"
	StepAwaitNewTime      Step = "await_new_time"
)

// Draft is the partial appointment being assembled by the booking flow.
type Draft struct {
	PatientName string `json:"patient_name,omitempty"`
	DoctorID    string `json:"doctor_id,omitempty"`
	Doctor      string `json:"doctor,omitempty"`
	Procedure   string `json:"procedure,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
}

// Session is the transient per-user wizard progress. One instance per
// user, owned by the session store, never shared between users.
type Session struct {
	Step     Step  `json:"step"`
	Draft    Draft `json:"draft"`
	TargetID int64 `json:"target_id,omitempty"`
}

// SessionStore keeps wizard sessions keyed by user id.
type SessionStore interface {
	// Load returns the user's session or nil when the user is idle.
	Load(ctx context.Context, userID int64) (*Session, error)
	// Save creates or replaces the user's session.
	Save(ctx context.Context, userID int64, sess *Session) error
	// Clear drops the user's session. Clearing an absent session is fine.
	Clear(ctx context.Context, userID int64) error
}
