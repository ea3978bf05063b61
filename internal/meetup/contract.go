package meetup

import (
	"net/url"
	"strings"

	"github.com/meetupbot/meetupbot/internal/model"
)

// Field names shared by forms, issue bodies and error reports.
const (
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldDate          = "date"
	FieldTime          = "time"
	FieldTimestamp     = "timestamp"
	FieldLocation      = "location"
	FieldLocationLink  = "locationLink"
	FieldOrganizer     = "organizer"
	FieldOrganizerLink = "organizerLink"
	FieldSignupLink    = "signupLink"
)

// MeetupInput is the raw material of a Meetup. Date must already be an
// absolute timestamp.
type MeetupInput struct {
	Title         string
	Description   string
	Date          string
	Location      string
	LocationLink  string
	Organizer     string
	OrganizerLink string
	SignupLink    string
}

// ValidateMeetup checks every field of in and builds a Meetup. On failure
// the returned error is a FieldErrors listing every failing field.
// Surrounding whitespace is not part of any field value.
func ValidateMeetup(in MeetupInput) (*model.Meetup, error) {
	in = in.trimmed()

	var c collector

	checkNonEmpty(&c, FieldTitle, in.Title)
	checkNonEmpty(&c, FieldDescription, in.Description)

	date, err := parseTimestamp(in.Date)
	if err != nil {
		c.add(FieldDate, RuleISOTimestamp, in.Date, err.Error())
	}

	checkNonEmpty(&c, FieldLocation, in.Location)
	checkURL(&c, FieldLocationLink, in.LocationLink)
	checkNonEmpty(&c, FieldOrganizer, in.Organizer)
	checkURL(&c, FieldOrganizerLink, in.OrganizerLink)
	checkURL(&c, FieldSignupLink, in.SignupLink)

	if err := c.err(); err != nil {
		return nil, err
	}

	return &model.Meetup{
		Title:         in.Title,
		Description:   in.Description,
		Date:          date,
		Location:      in.Location,
		LocationLink:  in.LocationLink,
		Organizer:     in.Organizer,
		OrganizerLink: in.OrganizerLink,
		SignupLink:    in.SignupLink,
	}, nil
}

func (in MeetupInput) trimmed() MeetupInput {
	return MeetupInput{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Date:          strings.TrimSpace(in.Date),
		Location:      strings.TrimSpace(in.Location),
		LocationLink:  strings.TrimSpace(in.LocationLink),
		Organizer:     strings.TrimSpace(in.Organizer),
		OrganizerLink: strings.TrimSpace(in.OrganizerLink),
		SignupLink:    strings.TrimSpace(in.SignupLink),
	}
}

func checkNonEmpty(c *collector, field, value string) {
	if strings.TrimSpace(value) == "" {
		c.add(field, RuleMinLength, value, "must not be empty")
	}
}

func checkURL(c *collector, field, value string) {
	if !isAbsoluteURL(strings.TrimSpace(value)) {
		c.add(field, RuleURL, value, "invalid URL")
	}
}

// isAbsoluteURL reports whether s parses as a URL with scheme and host.
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}
