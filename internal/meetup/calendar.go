package meetup

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/meetupbot/meetupbot/internal/model"
)

const (
	calendarProductID = "-//meetupbot//meetup calendar//EN"

	// DefaultMeetupDuration is used when a calendar entry needs an end time.
	DefaultMeetupDuration = 2 * time.Hour
)

// CalendarOptions controls how a meetup is exported to iCalendar.
type CalendarOptions struct {
	UID      string
	Duration time.Duration
	Stamp    time.Time
}

// RenderCalendar exports m as an iCalendar document with a single event.
func RenderCalendar(m *model.Meetup, opts CalendarOptions) string {
	if opts.Duration <= 0 {
		opts.Duration = DefaultMeetupDuration
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetProductId(calendarProductID)
	cal.SetMethod(ics.MethodPublish)

	event := cal.AddEvent(opts.UID)
	event.SetDtStampTime(opts.Stamp.UTC())
	event.SetStartAt(m.Date.UTC())
	event.SetEndAt(m.Date.Add(opts.Duration).UTC())
	event.SetSummary(m.Title)
	event.SetDescription(m.Description)
	event.SetLocation(m.Location)
	event.SetURL(m.SignupLink)
	event.SetOrganizer(m.OrganizerLink, ics.WithCN(m.Organizer))

	return cal.Serialize()
}
