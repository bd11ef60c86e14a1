package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

// document is the on-disk layout: one JSON object rewritten in full on
// every mutation.
type document struct {
	Appointments []Appointment   `json:"appointments"`
	Users        map[string]User `json:"users"`
	NextID       int64           `json:"next_id"`
}

// Store is the durable record of appointments and users. It is the single
// writer for its data file; all methods are safe for concurrent use.
type Store struct {
	path   string
	logger *logging.Logger

	mu  sync.RWMutex
	doc document
}

// Open loads the data file at path, creating it with an empty document
// when it does not exist yet.
func Open(path string, logger *logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{path: path, logger: logger}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.doc = document{Users: map[string]User{}, NextID: 1}
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("store: decode %s: %w", path, err)
		}
		if s.doc.Users == nil {
			s.doc.Users = map[string]User{}
		}
		if s.doc.NextID < 1 {
			s.doc.NextID = 1
		}
	}

	logger.Info("store opened",
		"path", path,
		"appointments", len(s.doc.Appointments),
		"users", len(s.doc.Users),
	)
	return s, nil
}

// AddUser registers a user on first contact. Calling it again with the
// same id is a no-op: the original record, including its registration
// timestamp, stays untouched.
func (s *Store) AddUser(ctx context.Context, id int64, username, firstName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(id, 10)
	if _, ok := s.doc.Users[key]; ok {
		return nil
	}
	s.doc.Users[key] = User{
		Username:     username,
		FirstName:    firstName,
		RegisteredAt: time.Now().UTC(),
	}
	return s.commit(func() {
		delete(s.doc.Users, key)
	})
}

// CreateAppointment appends an active record with the next sequential id
// and persists the whole document. Slot availability must have been
// verified by the caller; no re-check happens here.
func (s *Store) CreateAppointment(ctx context.Context, ownerID int64, patientName, doctor, procedure, date, tm string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.doc.NextID
	s.doc.Appointments = append(s.doc.Appointments, Appointment{
		ID:          id,
		OwnerID:     ownerID,
		PatientName: patientName,
		Doctor:      doctor,
		Procedure:   procedure,
		Date:        date,
		Time:        tm,
		CreatedAt:   time.Now().UTC(),
		Status:      StatusActive,
	})
	s.doc.NextID++

	err := s.commit(func() {
		s.doc.Appointments = s.doc.Appointments[:len(s.doc.Appointments)-1]
		s.doc.NextID = id
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// IsSlotAvailable reports whether no active appointment occupies the
// exact (doctor, date, time) triple. Comparison is plain string equality.
func (s *Store) IsSlotAvailable(doctor, date, tm string) bool {
	return s.IsSlotAvailableExcluding(0, doctor, date, tm)
}

// IsSlotAvailableExcluding is IsSlotAvailable that ignores the record
// with the given id. Used by strict-mode edits, where the appointment
// being moved must not conflict with itself.
func (s *Store) IsSlotAvailableExcluding(excludeID int64, doctor, date, tm string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.doc.Appointments {
		if a.ID == excludeID {
			continue
		}
		if a.Status == StatusActive && a.Doctor == doctor && a.Date == date && a.Time == tm {
			return false
		}
	}
	return true
}

// Get returns the appointment with the given id regardless of status.
func (s *Store) Get(id int64) (Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.doc.Appointments {
		if a.ID == id {
			return a, true
		}
	}
	return Appointment{}, false
}

// List returns all active appointments in insertion order.
func (s *Store) List() []Appointment {
	return s.listFiltered(func(a Appointment) bool {
		return a.Status == StatusActive
	})
}

// ListOwner returns the owner's active appointments in insertion order.
func (s *Store) ListOwner(ownerID int64) []Appointment {
	return s.listFiltered(func(a Appointment) bool {
		return a.Status == StatusActive && a.OwnerID == ownerID
	})
}

// Records returns every appointment regardless of status.
func (s *Store) Records() []Appointment {
	return s.listFiltered(func(Appointment) bool { return true })
}

func (s *Store) listFiltered(keep func(Appointment) bool) []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Appointment
	for _, a := range s.doc.Appointments {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// UpdateAppointment merges the given fields into the matching record and
// persists. It returns ErrNotFound when no record has the id.
func (s *Store) UpdateAppointment(ctx context.Context, id int64, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Appointments {
		if s.doc.Appointments[i].ID != id {
			continue
		}
		prev := s.doc.Appointments[i]
		a := &s.doc.Appointments[i]
		if upd.PatientName != nil {
			a.PatientName = *upd.PatientName
		}
		if upd.Doctor != nil {
			a.Doctor = *upd.Doctor
		}
		if upd.Procedure != nil {
			a.Procedure = *upd.Procedure
		}
		if upd.Date != nil {
			a.Date = *upd.Date
		}
		if upd.Time != nil {
			a.Time = *upd.Time
		}
		if upd.Status != nil {
			a.Status = *upd.Status
		}
		return s.commit(func() {
			s.doc.Appointments[i] = prev
		})
	}
	return ErrNotFound
}

// SoftDelete marks the appointment deleted, keeping the record.
func (s *Store) SoftDelete(ctx context.Context, id int64) error {
	deleted := StatusDeleted
	return s.UpdateAppointment(ctx, id, Update{Status: &deleted})
}

// Users returns all registered users keyed by id.
func (s *Store) Users() map[int64]User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]User, len(s.doc.Users))
	for key, u := range s.doc.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		out[id] = u
	}
	return out
}

// commit persists the document, rolling the in-memory mutation back via
// undo when the durable write fails. Callers hold the write lock.
func (s *Store) commit(undo func()) error {
	if err := s.save(); err != nil {
		undo()
		return err
	}
	return nil
}

// save rewrites the whole document: marshal, write a sibling temp file,
// rename over the original.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}
