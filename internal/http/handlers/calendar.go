package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/calendar"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/pkg/logging"
)

// CalendarHandler serves .ics downloads for booked appointments. The
// bot hands these links out in chat instead of writing temp files.
type CalendarHandler struct {
	store  *store.Store
	logger *logging.Logger
	now    func() time.Time
}

func NewCalendarHandler(st *store.Store, logger *logging.Logger) *CalendarHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CalendarHandler{
		store:  st,
		logger: logger.Component("calendar"),
		now:    time.Now,
	}
}

// GetEvent returns the appointment as an iCalendar document.
// GET /calendar/{id}.ics
func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	apt, ok := h.store.Get(id)
	if !ok || apt.Status != store.StatusActive {
		http.NotFound(w, r)
		return
	}

	ev, err := calendar.FromAppointment(apt, time.Local)
	if err != nil {
		h.logger.Error("failed to build calendar event", "appointment_id", id, "error", err)
		http.Error(w, "failed to build calendar event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="appointment_%d.ics"`, id))
	_, _ = w.Write([]byte(calendar.RenderICS(ev, h.now())))
}
