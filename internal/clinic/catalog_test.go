package clinic

import (
	"testing"
	"time"
)

func TestDoctorLookups(t *testing.T) {
	d, ok := DoctorByID("ivanova")
	if !ok {
		t.Fatal("expected ivanova in roster")
	}
	if d.Name != "Терапевт Иванова А.С." {
		t.Errorf("unexpected display name %q", d.Name)
	}
	if d.Specialty != SpecialtyTherapist {
		t.Errorf("unexpected specialty %q", d.Specialty)
	}

	byName, ok := DoctorByName("Терапевт Иванова А.С.")
	if !ok || byName.ID != "ivanova" {
		t.Errorf("DoctorByName mismatch: %+v ok=%v", byName, ok)
	}

	if _, ok := DoctorByID("nobody"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestProceduresFallback(t *testing.T) {
	procs := ProceduresFor(SpecialtyNeurologist)
	if len(procs) != 3 || procs[1] != "МРТ" {
		t.Errorf("unexpected neurologist procedures: %v", procs)
	}

	fallback := ProceduresFor(Specialty("podiatrist"))
	if len(fallback) != 1 || fallback[0] != "Консультация" {
		t.Errorf("expected single consultation fallback, got %v", fallback)
	}

	if got := ProceduresForDoctorName("не врач"); len(got) != 1 || got[0] != "Консультация" {
		t.Errorf("expected fallback for unknown doctor label, got %v", got)
	}
}

func TestHasProcedure(t *testing.T) {
	d, _ := DoctorByID("sidorova")
	if !HasProcedure(d, "Чистка зубов") {
		t.Error("expected dentist to offer cleaning")
	}
	if HasProcedure(d, "МРТ") {
		t.Error("dentist should not offer MRI")
	}
}

func TestDateWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) // a Saturday

	window := DateWindow(now, BookingWindowDays)
	if len(window) != 7 {
		t.Fatalf("expected 7 days, got %d", len(window))
	}
	if window[0].Value != "29.08.2026" {
		t.Errorf("window should start today, got %s", window[0].Value)
	}
	if window[0].Label != "29.08.2026 (Sat)" {
		t.Errorf("unexpected label %q", window[0].Label)
	}
	if window[6].Value != "04.09.2026" {
		t.Errorf("unexpected last day %s", window[6].Value)
	}

	if !InDateWindow(now, "31.08.2026", BookingWindowDays) {
		t.Error("expected 31.08 inside the 7-day window")
	}
	if InDateWindow(now, "05.09.2026", BookingWindowDays) {
		t.Error("expected 05.09 outside the 7-day window")
	}
	if !InDateWindow(now, "05.09.2026", EditWindowDays) {
		t.Error("expected 05.09 inside the 14-day edit window")
	}
}

func TestValidTimeSlot(t *testing.T) {
	if !ValidTimeSlot("09:00") {
		t.Error("09:00 should be a valid slot")
	}
	if ValidTimeSlot("13:00") {
		t.Error("13:00 is the lunch break, not a slot")
	}
}
