package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/clinic"
	"github.com/egornikitin1224-a11y/telegram-bot-for-hospital/internal/store"
)

var statusEmoji = map[store.Status]string{
	store.StatusActive:    "✅",
	store.StatusDeleted:   "❌",
	store.StatusCompleted: "✔️",
}

// FormatAppointment renders an appointment card. Admin cards carry the
// owner id, the raw status, and the creation timestamp.
func FormatAppointment(apt store.Appointment, admin bool) string {
	emoji, ok := statusEmoji[apt.Status]
	if !ok {
		emoji = "⏳"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Запись #%d\n\n", emoji, apt.ID)
	fmt.Fprintf(&b, "👤 Пациент: %s\n", apt.PatientName)
	fmt.Fprintf(&b, "👨‍⚕️ Врач: %s\n", apt.Doctor)
	fmt.Fprintf(&b, "💉 Процедура: %s\n", apt.Procedure)
	fmt.Fprintf(&b, "📅 Дата: %s\n", apt.Date)
	fmt.Fprintf(&b, "⏰ Время: %s\n", apt.Time)

	if admin {
		fmt.Fprintf(&b, "🆔 ID пользователя: %d\n", apt.OwnerID)
		fmt.Fprintf(&b, "📝 Статус: %s\n", apt.Status)
		fmt.Fprintf(&b, "📅 Создано: %s\n", apt.CreatedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}

// FormatDoctorsList renders the clinic roster.
func FormatDoctorsList() string {
	var b strings.Builder
	b.WriteString("👨‍⚕️ Наши врачи:\n\n")
	for _, d := range clinic.Doctors {
		fmt.Fprintf(&b, "• %s\n", d.Name)
	}
	return b.String()
}

// FormatUsersList renders registered users in a stable id order.
func FormatUsersList(users map[int64]store.User) string {
	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString("👥 Список пользователей:\n\n")
	for _, id := range ids {
		u := users[id]
		fmt.Fprintf(&b, "ID: %d\n", id)
		fmt.Fprintf(&b, "Имя: %s\n", u.FirstName)
		if u.Username != "" {
			fmt.Fprintf(&b, "Username: @%s\n", u.Username)
		}
		fmt.Fprintf(&b, "Регистрация: %s\n", u.RegisteredAt.Format("2006-01-02"))
		b.WriteString(strings.Repeat("-", 20) + "\n")
	}
	return b.String()
}
