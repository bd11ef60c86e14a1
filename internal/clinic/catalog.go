package clinic

import "time"

// Specialty keys the procedure catalog. Lookups go through the stable
// doctor id, never through the display label.
type Specialty string

const (
	SpecialtyTherapist       Specialty = "therapist"
	SpecialtySurgeon         Specialty = "surgeon"
	SpecialtyDentist         Specialty = "dentist"
	SpecialtyOphthalmologist Specialty = "ophthalmologist"
	SpecialtyNeurologist     Specialty = "neurologist"
)

// Doctor is a roster entry. Name is the user-facing label and the value
// stored on appointments; ID/Specialty drive catalog lookups.
type Doctor struct {
	ID        string
	Specialty Specialty
	Name      string
}

// Doctors is the fixed clinic roster.
var Doctors = []Doctor{
	{ID: "ivanova", Specialty: SpecialtyTherapist, Name: "Терапевт Иванова А.С."},
	{ID: "petrov", Specialty: SpecialtySurgeon, Name: "Хирург Петров В.И."},
	{ID: "sidorova", Specialty: SpecialtyDentist, Name: "Стоматолог Сидорова Е.М."},
	{ID: "smirnov", Specialty: SpecialtyOphthalmologist, Name: "Окулист Смирнов П.А."},
	{ID: "kozlova", Specialty: SpecialtyNeurologist, Name: "Невролог Козлова Н.В."},
}

// TimeSlots is the fixed set of daily appointment times.
var TimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00",
	"14:00", "15:00", "16:00", "17:00",
}

// DateFormat renders calendar dates day-first with a 4-digit year.
const DateFormat = "02.01.2006"

// Window sizes for date selection.
const (
	BookingWindowDays = 7
	EditWindowDays    = 14
)

var procedures = map[Specialty][]string{
	SpecialtyTherapist:       {"Общий осмотр", "Консультация", "Выписка рецепта"},
	SpecialtySurgeon:         {"Консультация", "Малая операция", "Перевязка"},
	SpecialtyDentist:         {"Лечение кариеса", "Чистка зубов", "Удаление зуба"},
	SpecialtyOphthalmologist: {"Проверка зрения", "Подбор очков", "Консультация"},
	SpecialtyNeurologist:     {"Консультация", "МРТ", "ЭЭГ"},
}

// defaultProcedures is offered for any specialty missing from the catalog.
var defaultProcedures = []string{"Консультация"}

// DoctorByID finds a roster entry by its stable id.
func DoctorByID(id string) (Doctor, bool) {
	for _, d := range Doctors {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// DoctorByName finds a roster entry by its display label. Appointments
// store the label, so edit flows resolve doctors this way.
func DoctorByName(name string) (Doctor, bool) {
	for _, d := range Doctors {
		if d.Name == name {
			return d, true
		}
	}
	return Doctor{}, false
}

// ProceduresFor returns the procedure set of a specialty, falling back to
// the single-option default for unknown specialties.
func ProceduresFor(sp Specialty) []string {
	if procs, ok := procedures[sp]; ok {
		return procs
	}
	return defaultProcedures
}

// ProceduresForDoctorName resolves procedures from a stored doctor label.
func ProceduresForDoctorName(name string) []string {
	if d, ok := DoctorByName(name); ok {
		return ProceduresFor(d.Specialty)
	}
	return defaultProcedures
}

// HasProcedure reports whether the procedure belongs to the doctor's set.
func HasProcedure(d Doctor, procedure string) bool {
	for _, p := range ProceduresFor(d.Specialty) {
		if p == procedure {
			return true
		}
	}
	return false
}

// DateOption is one selectable calendar day.
type DateOption struct {
	Value string // "02.01.2006"
	Label string // "02.01.2006 (Mon)"
}

// DateWindow lists the next days starting today, each labeled with its
// weekday abbreviation.
func DateWindow(now time.Time, days int) []DateOption {
	out := make([]DateOption, 0, days)
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, i)
		value := day.Format(DateFormat)
		out = append(out, DateOption{
			Value: value,
			Label: value + " (" + day.Weekday().String()[:3] + ")",
		})
	}
	return out
}

// InDateWindow reports whether value is one of the window's days.
func InDateWindow(now time.Time, value string, days int) bool {
	for _, opt := range DateWindow(now, days) {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// ValidTimeSlot reports whether value is one of the daily slots.
func ValidTimeSlot(value string) bool {
	for _, slot := range TimeSlots {
		if slot == value {
			return true
		}
	}
	return false
}
