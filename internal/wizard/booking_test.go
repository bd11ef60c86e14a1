package wizard

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

type fakeMessage struct {
	kind    string // "prompt", "freeform", "say"
	text    string
	choices []Choice
}

type fakePresenter struct {
	messages []fakeMessage
}

func (p *fakePresenter) Prompt(_ context.Context, _ int64, text string, choices []Choice) error {
	p.messages = append(p.messages, fakeMessage{kind: "prompt", text: text, choices: choices})
	return nil
}

func (p *fakePresenter) PromptFreeform(_ context.Context, _ int64, text string, choices ...Choice) error {
	p.messages = append(p.messages, fakeMessage{kind: "freeform", text: text, choices: choices})
	return nil
}

func (p *fakePresenter) Say(_ context.Context, _ int64, text string) error {
	p.messages = append(p.messages, fakeMessage{kind: "say", text: text})
	return nil
}

func (p *fakePresenter) last(t *testing.T) fakeMessage {
	t.Helper()
	require.NotEmpty(t, p.messages)
	return p.messages[len(p.messages)-1]
}

var testNow = time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

func newBookingFixture(t *testing.T) (*Booking, *store.Store, *MemorySessionStore, *fakePresenter) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "appointments.json"), logging.New("error"))
	require.NoError(t, err)
	sessions := NewMemorySessionStore()
	presenter := &fakePresenter{}
	b := NewBooking(st, sessions, presenter, logging.New("error"))
	b.now = func() time.Time { return testNow }
	return b, st, sessions, presenter
}

func mustStep(t *testing.T, sessions SessionStore, userID int64, want Step) {
	t.Helper()
	sess, err := sessions.Load(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, sess, "expected an active session")
	assert.Equal(t, want, sess.Step)
}

func tomorrow() string {
	return testNow.AddDate(0, 0, 1).Format(clinic.DateFormat)
}

func runToConfirmation(t *testing.T, b *Booking, userID int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, b.Start(ctx, userID))
	handled, err := b.HandleText(ctx, userID, "Иван Петров")
	require.NoError(t, err)
	require.True(t, handled)
	require.NoError(t, b.SelectDoctor(ctx, userID, "ivanova"))
	require.NoError(t, b.SelectProcedure(ctx, userID, "Консультация"))
	require.NoError(t, b.SelectDate(ctx, userID, tomorrow()))
	require.NoError(t, b.SelectTime(ctx, userID, "09:00"))
}

func TestBookingHappyPath(t *testing.T) {
	b, st, sessions, presenter := newBookingFixture(t)
	ctx := context.Background()

	runToConfirmation(t, b, 100)
	mustStep(t, sessions, 100, StepAwaitConfirmation)
	assert.Contains(t, presenter.last(t).text, "Всё верно?")

	committed, err := b.Confirm(ctx, 100)
	require.NoError(t, err)
	require.True(t, committed)

	sess, err := sessions.Load(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, sess, "session must be cleared after commit")

	appointments := st.ListOwner(100)
	require.Len(t, appointments, 1)
	apt := appointments[0]
	assert.Equal(t, int64(1), apt.ID)
	assert.Equal(t, store.StatusActive, apt.Status)
	assert.Equal(t, "Иван Петров", apt.PatientName)
	assert.Equal(t, "Терапевт Иванова А.С.", apt.Doctor)
	assert.Equal(t, "09:00", apt.Time)
	assert.Contains(t, presenter.last(t).text, "Запись успешно создана")
}

func TestBookingNameLengthBounds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		advance bool
	}{
		{"one char rejected", "Я", false},
		{"fifty one chars rejected", strings.Repeat("а", 51), false},
		{"two chars accepted", "Ян", true},
		{"fifty chars accepted", strings.Repeat("а", 50), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, sessions, _ := newBookingFixture(t)
			ctx := context.Background()
			require.NoError(t, b.Start(ctx, 1))

			handled, err := b.HandleText(ctx, 1, tt.input)
			require.NoError(t, err)
			require.True(t, handled)

			want := StepAwaitName
			if tt.advance {
				want = StepAwaitDoctor
			}
			mustStep(t, sessions, 1, want)
		})
	}
}

func TestBookingDoubleBookingBlockedAtTimeStep(t *testing.T) {
	b, st, sessions, presenter := newBookingFixture(t)
	ctx := context.Background()

	runToConfirmation(t, b, 100)
	committed, err := b.Confirm(ctx, 100)
	require.NoError(t, err)
	require.True(t, committed)

	// Second user walks the same flow for the identical slot.
	require.NoError(t, b.Start(ctx, 200))
	_, err = b.HandleText(ctx, 200, "Пётр Сидоров")
	require.NoError(t, err)
	require.NoError(t, b.SelectDoctor(ctx, 200, "ivanova"))
	require.NoError(t, b.SelectProcedure(ctx, 200, "Консультация"))
	require.NoError(t, b.SelectDate(ctx, 200, tomorrow()))
	require.NoError(t, b.SelectTime(ctx, 200, "09:00"))

	// Rejected at the time step, with the choices re-rendered.
	mustStep(t, sessions, 200, StepAwaitTime)
	last := presenter.last(t)
	assert.Contains(t, last.text, "уже занято")
	assert.Len(t, last.choices, len(clinic.TimeSlots))

	// Exactly one active appointment holds the slot.
	assert.Len(t, st.List(), 1)
	assert.False(t, st.IsSlotAvailable("Терапевт Иванова А.С.", tomorrow(), "09:00"))

	// A free slot still goes through.
	require.NoError(t, b.SelectTime(ctx, 200, "10:00"))
	mustStep(t, sessions, 200, StepAwaitConfirmation)
}

func TestBookingStaleSelectionIgnored(t *testing.T) {
	b, _, sessions, presenter := newBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx, 1))
	_, err := b.HandleText(ctx, 1, "Иван Петров")
	require.NoError(t, err)
	mustStep(t, sessions, 1, StepAwaitDoctor)

	// A replayed date callback must not advance a doctor-step session.
	require.NoError(t, b.SelectDate(ctx, 1, tomorrow()))
	mustStep(t, sessions, 1, StepAwaitDoctor)
	assert.Contains(t, presenter.last(t).text, "устарело")

	// Without any session at all the callback is also a no-op.
	require.NoError(t, sessions.Clear(ctx, 1))
	require.NoError(t, b.SelectTime(ctx, 1, "09:00"))
	sess, err := sessions.Load(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestBookingUnknownDoctorReprompts(t *testing.T) {
	b, _, sessions, presenter := newBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx, 1))
	_, err := b.HandleText(ctx, 1, "Иван Петров")
	require.NoError(t, err)

	require.NoError(t, b.SelectDoctor(ctx, 1, "доктор-кто"))
	mustStep(t, sessions, 1, StepAwaitDoctor)
	assert.Len(t, presenter.last(t).choices, len(clinic.Doctors))
}

func TestBookingTextOutsideNameStepNotHandled(t *testing.T) {
	b, _, _, _ := newBookingFixture(t)
	ctx := context.Background()

	handled, err := b.HandleText(ctx, 1, "просто сообщение")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestBookingProcedureSubsetPerDoctor(t *testing.T) {
	b, _, _, presenter := newBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx, 1))
	_, err := b.HandleText(ctx, 1, "Иван Петров")
	require.NoError(t, err)
	require.NoError(t, b.SelectDoctor(ctx, 1, "kozlova"))

	last := presenter.last(t)
	require.Len(t, last.choices, 3)
	assert.Equal(t, ActionSelectProcedure+":МРТ", last.choices[1].ID)

	// A procedure from another specialty is rejected.
	require.NoError(t, b.SelectProcedure(ctx, 1, "Чистка зубов"))
	last = presenter.last(t)
	assert.Len(t, last.choices, 3)
}
