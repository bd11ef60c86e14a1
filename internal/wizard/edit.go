package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

// Field names one editable appointment attribute.
type Field string

const (
	FieldPatientName Field = "patient_name"
	FieldDoctor      Field = "doctor"
	FieldProcedure   Field = "procedure"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
)

const (
	msgNotFound        = "❌ Запись не найдена."
	msgAskNewName      = "👤 Введите новое имя пациента:"
	msgBadNewName      = "❌ Некорректное имя. Попробуйте снова:"
	msgChooseNewDoctor = "👨‍⚕️ Выберите нового врача:"
	msgChooseNewDate   = "📅 Выберите новую дату:"
	msgChooseNewTime   = "⏰ Выберите новое время:"
	msgEditConflict    = "❌ Это время у врача уже занято. Выберите другое значение:"
)

// Edit drives the admin single-field edit flows. Each flow captures an
// appointment id on entry, changes exactly one field, and returns to
// idle. When strictSlotCheck is set, doctor/date/time edits refuse values
// that would break the one-active-appointment-per-slot invariant;
// otherwise edits apply unchecked, matching the historical behavior.
type Edit struct {
	store           *store.Store
	sessions        SessionStore
	presenter       Presenter
	strictSlotCheck bool
	logger          *logging.Logger
	now             func() time.Time
}

// NewEdit creates the edit wizard.
func NewEdit(st *store.Store, sessions SessionStore, presenter Presenter, strictSlotCheck bool, logger *logging.Logger) *Edit {
	if logger == nil {
		logger = logging.Default()
	}
	return &Edit{
		store:           st,
		sessions:        sessions,
		presenter:       presenter,
		strictSlotCheck: strictSlotCheck,
		logger:          logger.Component("edit"),
		now:             time.Now,
	}
}

// Start enters the edit flow for one field of an existing appointment.
func (e *Edit) Start(ctx context.Context, userID int64, field Field, appointmentID int64) error {
	apt, ok := e.store.Get(appointmentID)
	if !ok {
		return e.presenter.Say(ctx, userID, msgNotFound)
	}

	var step Step
	switch field {
	case FieldPatientName:
		step = StepAwaitNewName
	case FieldDoctor:
		step = StepAwaitNewDoctor
	case FieldProcedure:
		step = StepAwaitNewProcedure
	case FieldDate:
		step = StepAwaitNewDate
	case FieldTime:
		step = StepAwaitNewTime
	default:
		return fmt.Errorf("wizard: unknown edit field %q", field)
	}

	if err := e.sessions.Save(ctx, userID, &Session{Step: step, TargetID: appointmentID}); err != nil {
		return err
	}

	switch step {
	case StepAwaitNewName:
		return e.presenter.PromptFreeform(ctx, userID, msgAskNewName, CancelChoice)
	case StepAwaitNewDoctor:
		return e.presenter.Prompt(ctx, userID, msgChooseNewDoctor, DoctorChoices(ActionEditSelectDoctor))
	case StepAwaitNewProcedure:
		return e.presenter.Prompt(ctx, userID,
			fmt.Sprintf("💉 Выберите новую процедуру для %s:", apt.Doctor),
			ProcedureChoices(ActionEditSelectProcedure, clinic.ProceduresForDoctorName(apt.Doctor)))
	case StepAwaitNewDate:
		return e.presenter.Prompt(ctx, userID, msgChooseNewDate,
			DateChoices(ActionEditSelectDate, e.now(), clinic.EditWindowDays))
	default:
		return e.presenter.Prompt(ctx, userID, msgChooseNewTime, TimeChoices(ActionEditSelectTime))
	}
}

// HandleText consumes a text reply when the user is at the new-name step.
// It reports whether the text belonged to this wizard.
func (e *Edit) HandleText(ctx context.Context, userID int64, text string) (bool, error) {
	sess, err := e.sessions.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if sess == nil || sess.Step != StepAwaitNewName {
		return false, nil
	}

	name := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return true, e.presenter.PromptFreeform(ctx, userID, msgBadNewName, CancelChoice)
	}

	return true, e.apply(ctx, userID, sess.TargetID,
		store.Update{PatientName: &name},
		"✅ Имя пациента успешно обновлено!", "❌ Не удалось обновить имя.")
}

// SelectDoctor applies a new doctor to the target appointment.
func (e *Edit) SelectDoctor(ctx context.Context, userID int64, doctorID string) error {
	sess, err := e.loadAt(ctx, userID, StepAwaitNewDoctor)
	if err != nil || sess == nil {
		return err
	}

	doctor, ok := clinic.DoctorByID(doctorID)
	if !ok {
		return e.presenter.Prompt(ctx, userID, msgChooseNewDoctor, DoctorChoices(ActionEditSelectDoctor))
	}

	if e.strictSlotCheck {
		if apt, found := e.store.Get(sess.TargetID); found &&
			!e.store.IsSlotAvailableExcluding(sess.TargetID, doctor.Name, apt.Date, apt.Time) {
			return e.presenter.Prompt(ctx, userID, msgEditConflict, DoctorChoices(ActionEditSelectDoctor))
		}
	}

	return e.apply(ctx, userID, sess.TargetID,
		store.Update{Doctor: &doctor.Name},
		"✅ Врач успешно обновлен!", "❌ Не удалось обновить врача.")
}

// SelectProcedure applies a new procedure to the target appointment.
func (e *Edit) SelectProcedure(ctx context.Context, userID int64, procedure string) error {
	sess, err := e.loadAt(ctx, userID, StepAwaitNewProcedure)
	if err != nil || sess == nil {
		return err
	}

	apt, found := e.store.Get(sess.TargetID)
	if found && !contains(clinic.ProceduresForDoctorName(apt.Doctor), procedure) {
		return e.presenter.Prompt(ctx, userID,
			fmt.Sprintf("💉 Выберите новую процедуру для %s:", apt.Doctor),
			ProcedureChoices(ActionEditSelectProcedure, clinic.ProceduresForDoctorName(apt.Doctor)))
	}

	return e.apply(ctx, userID, sess.TargetID,
		store.Update{Procedure: &procedure},
		"✅ Процедура успешно обновлена!", "❌ Не удалось обновить процедуру.")
}

// SelectDate applies a new date to the target appointment.
func (e *Edit) SelectDate(ctx context.Context, userID int64, date string) error {
	sess, err := e.loadAt(ctx, userID, StepAwaitNewDate)
	if err != nil || sess == nil {
		return err
	}

	if !clinic.InDateWindow(e.now(), date, clinic.EditWindowDays) {
		return e.presenter.Prompt(ctx, userID, msgChooseNewDate,
			DateChoices(ActionEditSelectDate, e.now(), clinic.EditWindowDays))
	}

	if e.strictSlotCheck {
		if apt, found := e.store.Get(sess.TargetID); found &&
			!e.store.IsSlotAvailableExcluding(sess.TargetID, apt.Doctor, date, apt.Time) {
			return e.presenter.Prompt(ctx, userID, msgEditConflict,
				DateChoices(ActionEditSelectDate, e.now(), clinic.EditWindowDays))
		}
	}

	return e.apply(ctx, userID, sess.TargetID,
		store.Update{Date: &date},
		"✅ Дата успешно обновлена!", "❌ Не удалось обновить дату.")
}

// SelectTime applies a new time to the target appointment.
func (e *Edit) SelectTime(ctx context.Context, userID int64, tm string) error {
	sess, err := e.loadAt(ctx, userID, StepAwaitNewTime)
	if err != nil || sess == nil {
		return err
	}

	if !clinic.ValidTimeSlot(tm) {
		return e.presenter.Prompt(ctx, userID, msgChooseNewTime, TimeChoices(ActionEditSelectTime))
	}

	if e.strictSlotCheck {
		if apt, found := e.store.Get(sess.TargetID); found &&
			!e.store.IsSlotAvailableExcluding(sess.TargetID, apt.Doctor, apt.Date, tm) {
			return e.presenter.Prompt(ctx, userID, msgEditConflict, TimeChoices(ActionEditSelectTime))
		}
	}

	return e.apply(ctx, userID, sess.TargetID,
		store.Update{Time: &tm},
		"✅ Время успешно обновлено!", "❌ Не удалось обновить время.")
}

// apply merges the update, reports the outcome, and ends the flow.
func (e *Edit) apply(ctx context.Context, userID, appointmentID int64, upd store.Update, okMsg, failMsg string) error {
	err := e.store.UpdateAppointment(ctx, appointmentID, upd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if sayErr := e.presenter.Say(ctx, userID, failMsg); sayErr != nil {
			return sayErr
		}
	case err != nil:
		e.logger.Error("failed to apply edit", "appointment_id", appointmentID, "error", err)
		if sayErr := e.presenter.Say(ctx, userID, failMsg); sayErr != nil {
			return sayErr
		}
		if clearErr := e.sessions.Clear(ctx, userID); clearErr != nil {
			return clearErr
		}
		return err
	default:
		e.logger.Info("appointment edited", "appointment_id", appointmentID, "admin_id", userID)
		if sayErr := e.presenter.Say(ctx, userID, okMsg); sayErr != nil {
			return sayErr
		}
	}
	return e.sessions.Clear(ctx, userID)
}

func (e *Edit) loadAt(ctx context.Context, userID int64, want Step) (*Session, error) {
	sess, err := e.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Step != want {
		e.logger.Debug("ignoring out-of-order selection", "user_id", userID, "want", string(want))
		return nil, e.presenter.Say(ctx, userID, msgStaleAction)
	}
	return sess, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
