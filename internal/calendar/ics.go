// Package calendar renders appointments as iCalendar documents so
// patients can import them into their own calendar apps.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
)

const (
	prodID        = "-//Klinika Zdorovye//Appointment Bot//RU"
	uidSuffix     = "@clinicbot"
	eventDuration = time.Hour
	stampLayout   = "20060102T150405"
)

// Event is a single VEVENT rendered from an appointment.
type Event struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
}

// FromAppointment maps a stored appointment onto a calendar event.
// The appointment's date and time are interpreted in the clinic's
// local time zone.
func FromAppointment(apt store.Appointment, loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(clinic.DateFormat+" 15:04", apt.Date+" "+apt.Time, loc)
	if err != nil {
		return Event{}, fmt.Errorf("calendar: bad appointment datetime %q %q: %w", apt.Date, apt.Time, err)
	}
	return Event{
		UID:         fmt.Sprintf("%d%s", apt.ID, uidSuffix),
		Start:       start,
		End:         start.Add(eventDuration),
		Summary:     "Прием у " + apt.Doctor,
		Description: fmt.Sprintf("Пациент: %s\nПроцедура: %s", apt.PatientName, apt.Procedure),
		Location:    "Клиника «Здоровье»",
	}, nil
}

// RenderICS serializes the event as a standalone VCALENDAR document
// with CRLF line endings.
func RenderICS(ev Event, now time.Time) string {
	var b strings.Builder
	writeLine := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	writeLine("BEGIN:VCALENDAR")
	writeLine("VERSION:2.0")
	writeLine("PRODID:" + prodID)
	writeLine("BEGIN:VEVENT")
	writeLine("UID:" + ev.UID)
	writeLine("DTSTAMP:" + now.UTC().Format(stampLayout) + "Z")
	writeLine("DTSTART:" + ev.Start.Format(stampLayout))
	writeLine("DTEND:" + ev.End.Format(stampLayout))
	writeLine("SUMMARY:" + escapeText(ev.Summary))
	writeLine("DESCRIPTION:" + escapeText(ev.Description))
	writeLine("LOCATION:" + escapeText(ev.Location))
	writeLine("END:VEVENT")
	writeLine("END:VCALENDAR")
	return b.String()
}

// escapeText applies RFC 5545 TEXT escaping.
func escapeText(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
