package meetup

// Values holds raw submitted strings keyed by field name. A field is present
// iff its key is in the map, even when the value is empty.
type Values map[string]string

// Get returns the value of field and whether it was submitted.
func (v Values) Get(field string) (string, bool) {
	s, ok := v[field]
	return s, ok
}

// SharedFields are the fields common to both submission shapes.
var SharedFields = []string{
	FieldTitle,
	FieldDescription,
	FieldLocation,
	FieldLocationLink,
	FieldOrganizer,
	FieldOrganizerLink,
	FieldSignupLink,
}

// HumanFields lists every field of a human submission.
var HumanFields = append(append([]string{}, SharedFields...), FieldDate, FieldTime)

// RobotFields lists every field of a robot submission.
var RobotFields = append(append([]string{}, SharedFields...), FieldTimestamp)

// SharedFormValues are the validated fields common to both shapes.
type SharedFormValues struct {
	Title         string
	Description   string
	Location      string
	LocationLink  string
	Organizer     string
	OrganizerLink string
	SignupLink    string
}

// HumanFormValues is a validated submission with separate date and time.
type HumanFormValues struct {
	SharedFormValues
	Date string
	Time string
}

// RobotFormValues is a validated submission with one ISO-8601 timestamp.
type RobotFormValues struct {
	SharedFormValues
	Timestamp string
}

// ParseHumanForm validates a human submission. Every failing field is
// reported.
func ParseHumanForm(raw Values) (HumanFormValues, error) {
	var c collector
	out := HumanFormValues{SharedFormValues: parseShared(&c, raw)}

	if date, ok := required(&c, raw, FieldDate); ok {
		if err := checkFormDate(date); err != nil {
			c.add(FieldDate, RuleDate, date, err.Error())
		}
		out.Date = date
	}

	if clock, ok := required(&c, raw, FieldTime); ok {
		if err := checkFormTime(clock); err != nil {
			c.add(FieldTime, RuleTime, clock, err.Error())
		}
		out.Time = clock
	}

	if err := c.err(); err != nil {
		return HumanFormValues{}, err
	}
	return out, nil
}

// ParseRobotForm validates a robot submission. Every failing field is
// reported.
func ParseRobotForm(raw Values) (RobotFormValues, error) {
	var c collector
	out := RobotFormValues{SharedFormValues: parseShared(&c, raw)}

	if ts, ok := required(&c, raw, FieldTimestamp); ok {
		if _, err := parseTimestamp(ts); err != nil {
			c.add(FieldTimestamp, RuleISOTimestamp, ts, err.Error())
		}
		out.Timestamp = ts
	}

	if err := c.err(); err != nil {
		return RobotFormValues{}, err
	}
	return out, nil
}

func parseShared(c *collector, raw Values) SharedFormValues {
	var out SharedFormValues

	if v, ok := required(c, raw, FieldTitle); ok {
		checkNonEmpty(c, FieldTitle, v)
		out.Title = v
	}
	if v, ok := required(c, raw, FieldDescription); ok {
		checkNonEmpty(c, FieldDescription, v)
		out.Description = v
	}
	if v, ok := required(c, raw, FieldLocation); ok {
		checkNonEmpty(c, FieldLocation, v)
		out.Location = v
	}
	if v, ok := required(c, raw, FieldLocationLink); ok {
		checkURL(c, FieldLocationLink, v)
		out.LocationLink = v
	}
	if v, ok := required(c, raw, FieldOrganizer); ok {
		checkNonEmpty(c, FieldOrganizer, v)
		out.Organizer = v
	}
	if v, ok := required(c, raw, FieldOrganizerLink); ok {
		checkURL(c, FieldOrganizerLink, v)
		out.OrganizerLink = v
	}
	if v, ok := required(c, raw, FieldSignupLink); ok {
		checkURL(c, FieldSignupLink, v)
		out.SignupLink = v
	}

	return out
}

func required(c *collector, raw Values, field string) (string, bool) {
	v, ok := raw.Get(field)
	if !ok {
		c.add(field, RuleRequired, "", "is required")
	}
	return v, ok
}
