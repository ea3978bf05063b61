// Package meetup converts meetup submissions into validated meetups and
// maps them to and from issue bodies.
package meetup

import (
	"errors"
	"fmt"
	"strings"
)

// Rule names a constraint a field value must satisfy.
type Rule string

// Validation rules.
const (
	RuleRequired     Rule = "required"
	RuleMinLength    Rule = "min_length"
	RuleURL          Rule = "url"
	RuleDate         Rule = "date"
	RuleTime         Rule = "time"
	RuleISOTimestamp Rule = "iso_timestamp"
)

// FieldError is a single validation failure tied to one field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    Rule   `json:"rule"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldErrors is the ordered, non-empty list of failures of one validation.
type FieldErrors []FieldError

// Error implements error.
func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Error()
	}
	return "invalid meetup: " + strings.Join(msgs, "; ")
}

// Fields returns the names of the failing fields in order.
func (fe FieldErrors) Fields() []string {
	out := make([]string, len(fe))
	for i, e := range fe {
		out[i] = e.Field
	}
	return out
}

// Has reports whether field failed with the given rule.
func (fe FieldErrors) Has(field string, rule Rule) bool {
	for _, e := range fe {
		if e.Field == field && e.Rule == rule {
			return true
		}
	}
	return false
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// collector accumulates field errors without short-circuiting.
type collector struct {
	errs FieldErrors
}

func (c *collector) add(field string, rule Rule, value, message string) {
	c.errs = append(c.errs, FieldError{
		Field:   field,
		Rule:    rule,
		Value:   value,
		Message: message,
	})
}

func (c *collector) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}
