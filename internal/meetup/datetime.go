package meetup

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Layouts accepted from submitters.
const (
	FormDateLayout = "2006-01-02"
	FormTimeLayout = "15:04"
)

var (
	formDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	formTimePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

	// timestampPattern accepts ISO-8601 date-times with a Z or a ±HH, ±HHMM
	// or ±HH:MM offset. Groups: date, clock, fraction, Z, sign, hours, minutes.
	timestampPattern = regexp.MustCompile(`^(\d{4}-(?:0[1-9]|1[0-2])-(?:0[1-9]|[12]\d|3[01]))[T ]` +
		`((?:[01]\d|2[0-3])(?::[0-5]\d){2})(?:[.,](\d+))?` +
		`(?:(Z)|([+-])([01]\d|2[0-3])(?::?([0-5]\d))?)$`)

	errDateFormat      = errors.New("invalid date (format yyyy-MM-dd)")
	errTimeFormat      = errors.New("invalid time (format HH:mm)")
	errTimestampFormat = errors.New("invalid ISO timestamp")
)

// checkFormDate accepts YYYY-MM-DD strings naming a real calendar day.
func checkFormDate(s string) error {
	if !formDatePattern.MatchString(s) {
		return errDateFormat
	}
	if _, err := time.Parse(FormDateLayout, s); err != nil {
		return errDateFormat
	}
	return nil
}

// checkFormTime accepts HH:MM strings on a 24h clock.
func checkFormTime(s string) error {
	if !formTimePattern.MatchString(s) {
		return errTimeFormat
	}
	if _, err := time.Parse(FormTimeLayout, s); err != nil {
		return errTimeFormat
	}
	return nil
}

// parseTimestamp parses an ISO-8601 timestamp carrying an offset or Z. The
// offset may be written ±HH, ±HHMM or ±HH:MM, and the time may be separated
// from the date by a space.
func parseTimestamp(s string) (time.Time, error) {
	m := timestampPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, errTimestampFormat
	}

	var b strings.Builder
	b.WriteString(m[1])
	b.WriteByte('T')
	b.WriteString(m[2])
	if m[3] != "" {
		b.WriteByte('.')
		b.WriteString(m[3])
	}
	if m[4] != "" {
		b.WriteByte('Z')
	} else {
		minutes := m[7]
		if minutes == "" {
			minutes = "00"
		}
		b.WriteString(m[5] + m[6] + ":" + minutes)
	}

	t, err := time.Parse(time.RFC3339Nano, b.String())
	if err != nil {
		return time.Time{}, errTimestampFormat
	}
	return t, nil
}

// combineLocal joins a form date and time the way submitters read them:
// "{date}T{time}:00" with no offset.
func combineLocal(date, clock string) string {
	return date + "T" + clock + ":00"
}

// localToTimestamp interprets an offset-less "2006-01-02T15:04:05" string in
// loc and renders it as an RFC 3339 timestamp.
func localToTimestamp(local string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", local, loc)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339), nil
}
