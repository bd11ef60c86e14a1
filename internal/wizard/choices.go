package wizard

import (
	"time"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
)

// DoctorChoices lists the roster, one button per doctor.
func DoctorChoices(action string) []Choice {
	out := make([]Choice, 0, len(clinic.Doctors))
	for _, d := range clinic.Doctors {
		out = append(out, Choice{ID: action + ":" + d.ID, Label: d.Name})
	}
	return out
}

// ProcedureChoices lists one button per procedure.
func ProcedureChoices(action string, procedures []string) []Choice {
	out := make([]Choice, 0, len(procedures))
	for _, p := range procedures {
		out = append(out, Choice{ID: action + ":" + p, Label: p})
	}
	return out
}

// DateChoices lists the rolling window of upcoming days.
func DateChoices(action string, now time.Time, days int) []Choice {
	window := clinic.DateWindow(now, days)
	out := make([]Choice, 0, len(window))
	for _, opt := range window {
		out = append(out, Choice{ID: action + ":" + opt.Value, Label: opt.Label})
	}
	return out
}

// TimeChoices lists the fixed daily slots.
func TimeChoices(action string) []Choice {
	out := make([]Choice, 0, len(clinic.TimeSlots))
	for _, slot := range clinic.TimeSlots {
		out = append(out, Choice{ID: action + ":" + slot, Label: slot})
	}
	return out
}
