package meetup

import (
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
)

// HumanFormToMeetup combines date and time into "{date}T{time}:00", reads it
// as wall-clock time in loc (UTC when nil) and validates the result.
func HumanFormToMeetup(values HumanFormValues, loc *time.Location) (*model.Meetup, error) {
	local := combineLocal(values.Date, values.Time)

	date, err := localToTimestamp(local, loc)
	if err != nil {
		// Unvalidated values; let the contract report the raw string.
		date = local
	}

	return ValidateMeetup(sharedInput(values.SharedFormValues, date))
}

// RobotFormToMeetup uses the timestamp as the meetup date unchanged.
func RobotFormToMeetup(values RobotFormValues) (*model.Meetup, error) {
	return ValidateMeetup(sharedInput(values.SharedFormValues, values.Timestamp))
}

func sharedInput(s SharedFormValues, date string) MeetupInput {
	return MeetupInput{
		Title:         s.Title,
		Description:   s.Description,
		Date:          date,
		Location:      s.Location,
		LocationLink:  s.LocationLink,
		Organizer:     s.Organizer,
		OrganizerLink: s.OrganizerLink,
		SignupLink:    s.SignupLink,
	}
}
