package meetup

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
)

func TestRenderCalendar(t *testing.T) {
	t.Parallel()

	m := sampleMeetup()
	stamp := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	out := RenderCalendar(m, CalendarOptions{
		UID:      "issue-42@meetupbot",
		Duration: 90 * time.Minute,
		Stamp:    stamp,
	})

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}

	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]

	if ev.Id() != "issue-42@meetupbot" {
		t.Errorf("UID = %q, want issue-42@meetupbot", ev.Id())
	}
	if p := ev.GetProperty(ics.ComponentPropertySummary); p == nil || p.Value != "Demo Night" {
		t.Errorf("SUMMARY = %v, want Demo Night", p)
	}
	if p := ev.GetProperty(ics.ComponentPropertyLocation); p == nil || p.Value != "123 Main St" {
		t.Errorf("LOCATION = %v, want 123 Main St", p)
	}

	start, err := ev.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt: %v", err)
	}
	if !start.Equal(m.Date) {
		t.Errorf("start = %v, want %v", start, m.Date)
	}

	end, err := ev.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt: %v", err)
	}
	if got := end.Sub(start); got != 90*time.Minute {
		t.Errorf("duration = %v, want 90m", got)
	}
}

func TestRenderCalendar_DefaultDuration(t *testing.T) {
	t.Parallel()

	out := RenderCalendar(sampleMeetup(), CalendarOptions{UID: "x"})

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar: %v", err)
	}
	ev := cal.Events()[0]

	start, _ := ev.GetStartAt()
	end, _ := ev.GetEndAt()
	if got := end.Sub(start); got != DefaultMeetupDuration {
		t.Errorf("duration = %v, want %v", got, DefaultMeetupDuration)
	}
}
