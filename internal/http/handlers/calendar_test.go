package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

func calendarRouter(t *testing.T, h *CalendarHandler) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/calendar/{id}.ics", h.GetEvent)
	return r
}

func TestCalendarDownload(t *testing.T) {
	st := newTestStore(t)
	_, err := st.CreateAppointment(context.Background(), 100,
		"Иван Петров", "Терапевт Иванова А.С.", "Консультация", "01.09.2026", "09:00")
	require.NoError(t, err)

	h := NewCalendarHandler(st, logging.New("error"))
	rec := httptest.NewRecorder()
	calendarRouter(t, h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/1.ics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "appointment_1.ics")

	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "UID:1@clinicbot")
	assert.Contains(t, body, "SUMMARY:Прием у Терапевт Иванова А.С.")
}

func TestCalendarUnknownAppointment(t *testing.T) {
	h := NewCalendarHandler(newTestStore(t), logging.New("error"))

	rec := httptest.NewRecorder()
	calendarRouter(t, h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/42.ics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarCancelledAppointmentHidden(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	id, err := st.CreateAppointment(ctx, 100,
		"Иван Петров", "Терапевт Иванова А.С.", "Консультация", "01.09.2026", "09:00")
	require.NoError(t, err)
	require.NoError(t, st.SoftDelete(ctx, id))

	h := NewCalendarHandler(st, logging.New("error"))
	rec := httptest.NewRecorder()
	calendarRouter(t, h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/1.ics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalendarBadID(t *testing.T) {
	h := NewCalendarHandler(newTestStore(t), logging.New("error"))

	rec := httptest.NewRecorder()
	calendarRouter(t, h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/abc.ics", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
