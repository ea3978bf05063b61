package meetup

import (
	"regexp"
	"strings"
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
)

// Issue body section labels. They are matched exactly and case-sensitively.
const (
	LabelTitle         = "Meetup title"
	LabelDate          = "Date"
	LabelTime          = "Time"
	LabelTimestamp     = "🤖 Timestamp"
	LabelLocation      = "Street address"
	LabelLocationLink  = "Maps link for address"
	LabelOrganizer     = "Organizer"
	LabelOrganizerLink = "Organizer link"
	LabelSignupLink    = "Signup link for meetup"
	LabelDescription   = "Description"
)

const headingMarker = "###"

// section binds a field to the heading it is stored under.
type section struct {
	field string
	label string
}

// boundedSections are captured up to the next heading. Description is not
// listed: it is free text and runs to the end of the body.
var boundedSections = []section{
	{FieldTitle, LabelTitle},
	{FieldDate, LabelDate},
	{FieldTime, LabelTime},
	{FieldTimestamp, LabelTimestamp},
	{FieldLocation, LabelLocation},
	{FieldLocationLink, LabelLocationLink},
	{FieldOrganizer, LabelOrganizer},
	{FieldOrganizerLink, LabelOrganizerLink},
	{FieldSignupLink, LabelSignupLink},
}

var (
	sectionPatterns    = compileSectionPatterns()
	descriptionPattern = regexp.MustCompile(headingMarker + ` ` + regexp.QuoteMeta(LabelDescription) + `\s*\n\s*([\s\S]*)`)
)

func compileSectionPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(boundedSections))
	for _, s := range boundedSections {
		out[s.field] = regexp.MustCompile(
			headingMarker + ` ` + regexp.QuoteMeta(s.label) + `\s*\n\s*([\s\S]*?)\s*\n\s*` + headingMarker,
		)
	}
	return out
}

// RenderIssueBody renders m as an issue body. The date is written once, as
// a UTC RFC 3339 timestamp under the robot marker heading.
func RenderIssueBody(m *model.Meetup) string {
	var b strings.Builder

	writeSection(&b, LabelTitle, m.Title)
	writeSection(&b, LabelTimestamp, m.Date.UTC().Format(time.RFC3339))
	writeSection(&b, LabelLocation, m.Location)
	writeSection(&b, LabelLocationLink, m.LocationLink)
	writeSection(&b, LabelOrganizer, m.Organizer)
	writeSection(&b, LabelOrganizerLink, m.OrganizerLink)
	writeSection(&b, LabelSignupLink, m.SignupLink)

	b.WriteString(headingMarker + " " + LabelDescription + "\n\n")
	b.WriteString(m.Description)

	return b.String()
}

func writeSection(b *strings.Builder, label, value string) {
	b.WriteString(headingMarker + " " + label + "\n\n")
	b.WriteString(value)
	b.WriteString("\n\n")
}

// ExtractIssueValues pulls every labelled section out of body. Sections
// that are missing are absent from the result; extraction never fails.
func ExtractIssueValues(body string) Values {
	values := make(Values, len(boundedSections)+1)

	for _, s := range boundedSections {
		if m := sectionPatterns[s.field].FindStringSubmatch(body); m != nil {
			values[s.field] = strings.TrimSpace(m[1])
		}
	}

	if m := descriptionPattern.FindStringSubmatch(body); m != nil {
		values[FieldDescription] = strings.TrimSpace(m[1])
	}

	// Robot bodies have no date or time sections of their own; any found
	// past the description heading are part of the description.
	if _, ok := values[FieldTimestamp]; ok {
		head := issueHead(body)
		for _, field := range []string{FieldDate, FieldTime} {
			delete(values, field)
			if m := sectionPatterns[field].FindStringSubmatch(head); m != nil {
				values[field] = strings.TrimSpace(m[1])
			}
		}
	}

	return values
}

// issueHead returns body up to and including the marker of the description
// heading, so the last section before it still has a terminating heading.
func issueHead(body string) string {
	loc := descriptionPattern.FindStringIndex(body)
	if loc == nil {
		return body
	}
	return body[:loc[0]+len(headingMarker)]
}

// InferShape classifies extracted values: a body with both a date and a
// time section is human, anything else is treated as robot.
func InferShape(values Values) model.FormShape {
	_, hasDate := values.Get(FieldDate)
	_, hasTime := values.Get(FieldTime)
	if hasDate && hasTime {
		return model.FormShapeHuman
	}
	return model.FormShapeRobot
}

// ParseIssueBody re-derives a Meetup from an issue body. The inferred shape
// is returned even when validation fails. Human date and time are read in
// loc (UTC when nil).
func ParseIssueBody(body string, loc *time.Location) (model.FormShape, *model.Meetup, error) {
	values := ExtractIssueValues(body)
	shape := InferShape(values)

	m, err := ValuesToMeetup(shape, values, loc)
	return shape, m, err
}

// ValuesToMeetup runs raw values through the contract and transformer of
// the given shape.
func ValuesToMeetup(shape model.FormShape, values Values, loc *time.Location) (*model.Meetup, error) {
	if shape == model.FormShapeHuman {
		form, err := ParseHumanForm(values)
		if err != nil {
			return nil, err
		}
		return HumanFormToMeetup(form, loc)
	}

	form, err := ParseRobotForm(values)
	if err != nil {
		return nil, err
	}
	return RobotFormToMeetup(form)
}
