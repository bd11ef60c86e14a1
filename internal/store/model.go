package store

import "time"

// Status is the lifecycle state of an appointment. Records are never
// physically removed; cancellation and deletion only change the status.
type Status string

const (
	StatusActive    Status = "active"
	StatusDeleted   Status = "deleted"
	StatusCompleted Status = "completed"
)

// Appointment is a booked clinic visit.
type Appointment struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"user_id"`
	PatientName string    `json:"patient_name"`
	Doctor      string    `json:"doctor"`
	Procedure   string    `json:"procedure"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	CreatedAt   time.Time `json:"created_at"`
	Status      Status    `json:"status"`
}

// User is a chat user known to the bot. Created on first contact,
// never mutated afterwards.
type User struct {
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Update carries a partial set of appointment fields to merge into an
// existing record. Nil fields are left untouched. The store performs no
// field-level validation; that is the caller's job.
type Update struct {
	PatientName *string
	Doctor      *string
	Procedure   *string
	Date        *string
	Time        *string
	Status      *Status
}
