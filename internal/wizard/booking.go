package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

// Patient name length bounds, inclusive, in characters.
const (
	minNameLen = 2
	maxNameLen = 50
)

const (
	msgAskPatientName = "👤 Введите имя и фамилию пациента:"
	msgBadPatientName = "❌ Пожалуйста, введите корректное имя (от 2 до 50 символов):"
	msgChooseDoctor   = "👨‍⚕️ Выберите врача:"
	msgChooseDate     = "📅 Выберите дату:"
	msgChooseTime     = "⏰ Выберите время:"
	msgSlotTaken      = "❌ Это время уже занято. Пожалуйста, выберите другое время:"
	msgStaleAction    = "⌛ Действие устарело. Откройте меню заново: /menu"
	msgSaveFailed     = "❌ Не удалось сохранить запись. Попробуйте ещё раз."
)

// Booking walks a user through appointment creation: name, doctor,
// procedure, date, time, confirmation. Each step is gated on the previous
// one; out-of-order callbacks never advance the state.
type Booking struct {
	store     *store.Store
	sessions  SessionStore
	presenter Presenter
	logger    *logging.Logger
	now       func() time.Time
}

// NewBooking creates the booking wizard.
func NewBooking(st *store.Store, sessions SessionStore, presenter Presenter, logger *logging.Logger) *Booking {
	if logger == nil {
		logger = logging.Default()
	}
	return &Booking{
		store:     st,
		sessions:  sessions,
		presenter: presenter,
		logger:    logger.Component("booking"),
		now:       time.Now,
	}
}

// Start enters the flow and asks for the patient name.
func (b *Booking) Start(ctx context.Context, userID int64) error {
	if err := b.sessions.Save(ctx, userID, &Session{Step: StepAwaitName}); err != nil {
		return err
	}
	return b.presenter.PromptFreeform(ctx, userID, msgAskPatientName, CancelChoice)
}

// HandleText consumes a text reply when the user is at the name step.
// It reports whether the text belonged to this wizard.
func (b *Booking) HandleText(ctx context.Context, userID int64, text string) (bool, error) {
	sess, err := b.sessions.Load(ctx, userID)
	if err != nil {
		return false, err
	}
	if sess == nil || sess.Step != StepAwaitName {
		return false, nil
	}

	name := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(name); n < minNameLen || n > maxNameLen {
		return true, b.presenter.PromptFreeform(ctx, userID, msgBadPatientName, CancelChoice)
	}

	sess.Draft.PatientName = name
	sess.Step = StepAwaitDoctor
	if err := b.sessions.Save(ctx, userID, sess); err != nil {
		return true, err
	}
	return true, b.presenter.Prompt(ctx, userID, msgChooseDoctor, DoctorChoices(ActionSelectDoctor))
}

// SelectDoctor stores the doctor and derives the procedure choices.
func (b *Booking) SelectDoctor(ctx context.Context, userID int64, doctorID string) error {
	sess, err := b.loadAt(ctx, userID, StepAwaitDoctor)
	if err != nil || sess == nil {
		return err
	}

	doctor, ok := clinic.DoctorByID(doctorID)
	if !ok {
		return b.presenter.Prompt(ctx, userID, msgChooseDoctor, DoctorChoices(ActionSelectDoctor))
	}

	sess.Draft.DoctorID = doctor.ID
	sess.Draft.Doctor = doctor.Name
	sess.Step = StepAwaitProcedure
	if err := b.sessions.Save(ctx, userID, sess); err != nil {
		return err
	}
	return b.presenter.Prompt(ctx, userID,
		fmt.Sprintf("💉 Выберите процедуру для %s:", doctor.Name),
		ProcedureChoices(ActionSelectProcedure, clinic.ProceduresFor(doctor.Specialty)))
}

// SelectProcedure stores the procedure and moves on to dates.
func (b *Booking) SelectProcedure(ctx context.Context, userID int64, procedure string) error {
	sess, err := b.loadAt(ctx, userID, StepAwaitProcedure)
	if err != nil || sess == nil {
		return err
	}

	doctor, ok := clinic.DoctorByID(sess.Draft.DoctorID)
	if !ok || !clinic.HasProcedure(doctor, procedure) {
		return b.presenter.Prompt(ctx, userID,
			fmt.Sprintf("💉 Выберите процедуру для %s:", sess.Draft.Doctor),
			ProcedureChoices(ActionSelectProcedure, clinic.ProceduresForDoctorName(sess.Draft.Doctor)))
	}

	sess.Draft.Procedure = procedure
	sess.Step = StepAwaitDate
	if err := b.sessions.Save(ctx, userID, sess); err != nil {
		return err
	}
	return b.presenter.Prompt(ctx, userID, msgChooseDate,
		DateChoices(ActionSelectDate, b.now(), clinic.BookingWindowDays))
}

// SelectDate stores the date and moves on to time slots.
func (b *Booking) SelectDate(ctx context.Context, userID int64, date string) error {
	sess, err := b.loadAt(ctx, userID, StepAwaitDate)
	if err != nil || sess == nil {
		return err
	}

	if !clinic.InDateWindow(b.now(), date, clinic.BookingWindowDays) {
		return b.presenter.Prompt(ctx, userID, msgChooseDate,
			DateChoices(ActionSelectDate, b.now(), clinic.BookingWindowDays))
	}

	sess.Draft.Date = date
	sess.Step = StepAwaitTime
	if err := b.sessions.Save(ctx, userID, sess); err != nil {
		return err
	}
	return b.presenter.Prompt(ctx, userID, msgChooseTime, TimeChoices(ActionSelectTime))
}

// SelectTime re-checks slot availability before advancing. A taken slot
// keeps the user at the time step with a conflict notice.
func (b *Booking) SelectTime(ctx context.Context, userID int64, tm string) error {
	sess, err := b.loadAt(ctx, userID, StepAwaitTime)
	if err != nil || sess == nil {
		return err
	}

	if !clinic.ValidTimeSlot(tm) {
		return b.presenter.Prompt(ctx, userID, msgChooseTime, TimeChoices(ActionSelectTime))
	}
	if !b.store.IsSlotAvailable(sess.Draft.Doctor, sess.Draft.Date, tm) {
		return b.presenter.Prompt(ctx, userID, msgSlotTaken, TimeChoices(ActionSelectTime))
	}

	sess.Draft.Time = tm
	sess.Step = StepAwaitConfirmation
	if err := b.sessions.Save(ctx, userID, sess); err != nil {
		return err
	}

	summary := fmt.Sprintf(
		"📋 Проверьте данные записи:\n\n👤 Пациент: %s\n👨‍⚕️ Врач: %s\n💉 Процедура: %s\n📅 Дата: %s\n⏰ Время: %s\n\nВсё верно?",
		sess.Draft.PatientName, sess.Draft.Doctor, sess.Draft.Procedure, sess.Draft.Date, sess.Draft.Time,
	)
	return b.presenter.Prompt(ctx, userID, summary, []Choice{
		{ID: ActionConfirm, Label: "✅ Подтвердить"},
		CancelChoice,
	})
}

// Confirm commits the collected draft and clears the session. It reports
// whether a record was created; a persistence failure keeps the session
// at the confirmation step so the user can retry.
func (b *Booking) Confirm(ctx context.Context, userID int64) (bool, error) {
	sess, err := b.loadAt(ctx, userID, StepAwaitConfirmation)
	if err != nil || sess == nil {
		return false, err
	}

	id, err := b.store.CreateAppointment(ctx, userID,
		sess.Draft.PatientName, sess.Draft.Doctor, sess.Draft.Procedure, sess.Draft.Date, sess.Draft.Time)
	if err != nil {
		b.logger.Error("failed to commit appointment", "user_id", userID, "error", err)
		if sayErr := b.presenter.Say(ctx, userID, msgSaveFailed); sayErr != nil {
			return false, sayErr
		}
		return false, err
	}

	b.logger.Info("appointment created",
		"appointment_id", id,
		"user_id", userID,
		"doctor", sess.Draft.Doctor,
		"date", sess.Draft.Date,
		"time", sess.Draft.Time,
	)

	success := fmt.Sprintf(
		"✅ Запись успешно создана!\n\nНомер записи: #%d\n👤 Пациент: %s\n👨‍⚕️ Врач: %s\n💉 Процедура: %s\n📅 Дата: %s\n⏰ Время: %s",
		id, sess.Draft.PatientName, sess.Draft.Doctor, sess.Draft.Procedure, sess.Draft.Date, sess.Draft.Time,
	)
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return true, err
	}
	return true, b.presenter.Say(ctx, userID, success)
}

// loadAt returns the session when the user is exactly at want. A stale or
// replayed callback gets a short notice and a nil session.
func (b *Booking) loadAt(ctx context.Context, userID int64, want Step) (*Session, error) {
	sess, err := b.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Step != want {
		b.logger.Debug("ignoring out-of-order selection", "user_id", userID, "want", string(want))
		return nil, b.presenter.Say(ctx, userID, msgStaleAction)
	}
	return sess, nil
}
