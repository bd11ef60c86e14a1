package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "appointments.json"), logging.New("error"))
	require.NoError(t, err)
	return s
}

func TestCreateAndSlotAvailability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.True(t, s.IsSlotAvailable("Терапевт Иванова А.С.", "01.09.2026", "09:00"))

	id, err := s.CreateAppointment(ctx, 100, "Иван Петров", "Терапевт Иванова А.С.", "Консультация", "01.09.2026", "09:00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	assert.False(t, s.IsSlotAvailable("Терапевт Иванова А.С.", "01.09.2026", "09:00"))
	// Other slots of the same doctor stay open.
	assert.True(t, s.IsSlotAvailable("Терапевт Иванова А.С.", "01.09.2026", "10:00"))
	assert.True(t, s.IsSlotAvailable("Хирург Петров В.И.", "01.09.2026", "09:00"))

	require.NoError(t, s.SoftDelete(ctx, id))
	assert.True(t, s.IsSlotAvailable("Терапевт Иванова А.С.", "01.09.2026", "09:00"))
}

func TestSequentialIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		id, err := s.CreateAppointment(ctx, 100, "Пациент", "Хирург Петров В.И.", "Перевязка", "02.09.2026", fmt.Sprintf("1%d:00", want))
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestAddUserIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddUser(ctx, 100, "ivan", "Иван"))
	first := s.Users()[100]

	require.NoError(t, s.AddUser(ctx, 100, "ivan_new", "Пётр"))
	second := s.Users()[100]

	assert.Equal(t, "ivan", second.Username)
	assert.Equal(t, "Иван", second.FirstName)
	assert.Equal(t, first.RegisteredAt, second.RegisteredAt)
	assert.Len(t, s.Users(), 1)
}

func TestSoftDeleteKeepsRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateAppointment(ctx, 7, "Анна", "Окулист Смирнов П.А.", "Проверка зрения", "03.09.2026", "11:00")
	require.NoError(t, err)
	require.NoError(t, s.SoftDelete(ctx, id))

	assert.Empty(t, s.List())
	assert.Empty(t, s.ListOwner(7))

	a, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusDeleted, a.Status)
	assert.Len(t, s.Records(), 1)
}

func TestListOwnerFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAppointment(ctx, 1, "A", "Невролог Козлова Н.В.", "ЭЭГ", "04.09.2026", "09:00")
	require.NoError(t, err)
	_, err = s.CreateAppointment(ctx, 2, "B", "Невролог Козлова Н.В.", "МРТ", "04.09.2026", "10:00")
	require.NoError(t, err)

	assert.Len(t, s.List(), 2)
	require.Len(t, s.ListOwner(1), 1)
	assert.Equal(t, "A", s.ListOwner(1)[0].PatientName)
}

func TestUpdateAppointment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateAppointment(ctx, 1, "Старое Имя", "Стоматолог Сидорова Е.М.", "Чистка зубов", "05.09.2026", "14:00")
	require.NoError(t, err)

	name := "Новое Имя"
	tm := "15:00"
	require.NoError(t, s.UpdateAppointment(ctx, id, Update{PatientName: &name, Time: &tm}))

	a, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Новое Имя", a.PatientName)
	assert.Equal(t, "15:00", a.Time)
	// Untouched fields survive the merge.
	assert.Equal(t, "Чистка зубов", a.Procedure)

	assert.ErrorIs(t, s.UpdateAppointment(ctx, 999, Update{PatientName: &name}), ErrNotFound)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "appointments.json")
	ctx := context.Background()

	s, err := Open(path, logging.New("error"))
	require.NoError(t, err)
	require.NoError(t, s.AddUser(ctx, 5, "user", "Юзер"))
	id, err := s.CreateAppointment(ctx, 5, "Пациент", "Терапевт Иванова А.С.", "Общий осмотр", "06.09.2026", "12:00")
	require.NoError(t, err)

	reopened, err := Open(path, logging.New("error"))
	require.NoError(t, err)

	a, ok := reopened.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusActive, a.Status)
	assert.Contains(t, reopened.Users(), int64(5))

	// The id sequence continues where it left off.
	next, err := reopened.CreateAppointment(ctx, 5, "Пациент", "Терапевт Иванова А.С.", "Общий осмотр", "06.09.2026", "14:00")
	require.NoError(t, err)
	assert.Equal(t, id+1, next)
}

func TestFailedWriteRollsBack(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "data")
	require.NoError(t, os.Mkdir(sub, 0o755))

	s, err := Open(filepath.Join(sub, "appointments.json"), logging.New("error"))
	require.NoError(t, err)

	// Make the durable write impossible.
	require.NoError(t, os.RemoveAll(sub))

	ctx := context.Background()
	_, err = s.CreateAppointment(ctx, 1, "Пациент", "Терапевт Иванова А.С.", "Консультация", "07.09.2026", "09:00")
	require.Error(t, err)

	// The failed mutation must not be visible in memory either.
	assert.Empty(t, s.List())
	assert.True(t, s.IsSlotAvailable("Терапевт Иванова А.С.", "07.09.2026", "09:00"))

	require.Error(t, s.AddUser(ctx, 9, "u", "U"))
	assert.Empty(t, s.Users())
}
