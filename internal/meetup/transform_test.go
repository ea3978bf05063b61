package meetup

import (
	"testing"
	"time"
)

func TestHumanFormToMeetup_EndToEnd(t *testing.T) {
	t.Parallel()

	form, err := ParseHumanForm(humanValues())
	if err != nil {
		t.Fatalf("ParseHumanForm: %v", err)
	}

	m, err := HumanFormToMeetup(form, nil)
	if err != nil {
		t.Fatalf("HumanFormToMeetup: %v", err)
	}

	want := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	if !m.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", m.Date, want)
	}
	if m.Organizer != "Jane" || m.Location != "123 Main St" {
		t.Errorf("shared fields not carried over: %+v", m)
	}
}

func TestHumanFormToMeetup_Location(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	form, err := ParseHumanForm(humanValues())
	if err != nil {
		t.Fatalf("ParseHumanForm: %v", err)
	}

	m, err := HumanFormToMeetup(form, loc)
	if err != nil {
		t.Fatalf("HumanFormToMeetup: %v", err)
	}

	// 18:30 EST is 23:30 UTC.
	want := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if !m.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", m.Date.UTC(), want)
	}
}

func TestRobotFormToMeetup(t *testing.T) {
	t.Parallel()

	form, err := ParseRobotForm(robotValues())
	if err != nil {
		t.Fatalf("ParseRobotForm: %v", err)
	}

	m, err := RobotFormToMeetup(form)
	if err != nil {
		t.Fatalf("RobotFormToMeetup: %v", err)
	}

	want := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	if !m.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", m.Date, want)
	}
}

func TestRobotFormToMeetup_PropagatesContractErrors(t *testing.T) {
	t.Parallel()

	// Bypasses ParseRobotForm to reach the entity contract directly.
	form := RobotFormValues{Timestamp: "yesterday"}

	_, err := RobotFormToMeetup(form)

	fe, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if !fe.Has(FieldDate, RuleISOTimestamp) {
		t.Errorf("expected date iso_timestamp error, got %v", fe)
	}
	if !fe.Has(FieldTitle, RuleMinLength) {
		t.Errorf("expected title min_length error, got %v", fe)
	}
}

func TestCombineLocal(t *testing.T) {
	t.Parallel()

	if got := combineLocal("2024-03-01", "18:30"); got != "2024-03-01T18:30:00" {
		t.Errorf("combineLocal = %q, want 2024-03-01T18:30:00", got)
	}
}
