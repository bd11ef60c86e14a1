package chat

import (
	"fmt"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/wizard"
)

// Menu and per-appointment callback actions. Wizard step actions
// ("select_doctor" and friends) live in the wizard package.
const (
	ActionMainMenu        = "main_menu"
	ActionMakeAppointment = "make_appointment"
	ActionMyAppointments  = "my_appointments"
	ActionDoctorsList     = "doctors_list"
	ActionAbout           = "about"
	ActionAllAppointments = "all_appointments"
	ActionUsersList       = "users_list"

	ActionViewAppointment   = "view_appointment"
	ActionAdminView         = "admin_view"
	ActionCancelAppointment = "cancel_appointment"
	ActionDeleteAppointment = "delete_appointment"
	ActionEditAppointment   = "edit_appointment"
	ActionAddToCalendar     = "add_to_calendar"

	ActionEditPatientName = "edit_patient_name"
	ActionEditDoctor      = "edit_doctor"
	ActionEditProcedure   = "edit_procedure"
	ActionEditDate        = "edit_date"
	ActionEditTime        = "edit_time"
)

var backToMainChoice = wizard.Choice{ID: ActionMainMenu, Label: "◀️ Назад"}

// MainMenuChoices is the top-level keyboard. Admins get two extra rows.
func MainMenuChoices(admin bool) []wizard.Choice {
	choices := []wizard.Choice{
		{ID: ActionMakeAppointment, Label: "📅 Записаться"},
		{ID: ActionMyAppointments, Label: "📋 Мои записи"},
		{ID: ActionDoctorsList, Label: "👨‍⚕️ Врачи"},
		{ID: ActionAbout, Label: "ℹ️ О клинике"},
	}
	if admin {
		choices = append(choices,
			wizard.Choice{ID: ActionAllAppointments, Label: "📊 Все записи"},
			wizard.Choice{ID: ActionUsersList, Label: "👥 Пользователи"},
		)
	}
	return choices
}

// AppointmentListChoices renders one button per appointment plus a back
// button. Admin lists route presses to the admin card view.
func AppointmentListChoices(appointments []store.Appointment, admin bool) []wizard.Choice {
	view := ActionViewAppointment
	if admin {
		view = ActionAdminView
	}
	choices := make([]wizard.Choice, 0, len(appointments)+1)
	for _, apt := range appointments {
		choices = append(choices, wizard.Choice{
			ID:    fmt.Sprintf("%s:%d", view, apt.ID),
			Label: fmt.Sprintf("%s %s - %s", apt.Date, apt.Time, apt.Doctor),
		})
	}
	return append(choices, backToMainChoice)
}

// AppointmentActionChoices lists what can be done with one appointment.
func AppointmentActionChoices(appointmentID int64, admin bool) []wizard.Choice {
	if admin {
		return []wizard.Choice{
			{ID: fmt.Sprintf("%s:%d", ActionEditAppointment, appointmentID), Label: "✏️ Редактировать"},
			{ID: fmt.Sprintf("%s:%d", ActionDeleteAppointment, appointmentID), Label: "❌ Удалить"},
			{ID: fmt.Sprintf("%s:%d", ActionAddToCalendar, appointmentID), Label: "📅 В календарь"},
			{ID: ActionAllAppointments, Label: "◀️ Назад"},
		}
	}
	return []wizard.Choice{
		{ID: fmt.Sprintf("%s:%d", ActionCancelAppointment, appointmentID), Label: "❌ Отменить"},
		{ID: fmt.Sprintf("%s:%d", ActionAddToCalendar, appointmentID), Label: "📅 В календарь"},
		{ID: ActionMyAppointments, Label: "◀️ Назад"},
	}
}

// EditFieldChoices is the admin keyboard for picking which field of an
// appointment to change.
func EditFieldChoices(appointmentID int64) []wizard.Choice {
	return []wizard.Choice{
		{ID: fmt.Sprintf("%s:%d", ActionEditPatientName, appointmentID), Label: "👤 Имя пациента"},
		{ID: fmt.Sprintf("%s:%d", ActionEditDoctor, appointmentID), Label: "👨‍⚕️ Врача"},
		{ID: fmt.Sprintf("%s:%d", ActionEditProcedure, appointmentID), Label: "💉 Процедуру"},
		{ID: fmt.Sprintf("%s:%d", ActionEditDate, appointmentID), Label: "📅 Дату"},
		{ID: fmt.Sprintf("%s:%d", ActionEditTime, appointmentID), Label: "⏰ Время"},
		{ID: fmt.Sprintf("%s:%d", ActionAdminView, appointmentID), Label: "◀️ Назад"},
	}
}
