// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/meetupbot/meetupbot/internal/meetup"
	"github.com/meetupbot/meetupbot/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ValidationErrorResponse reports every failing field of a submission.
type ValidationErrorResponse struct {
	Error  string             `json:"error"`
	Code   string             `json:"code"`
	Shape  model.FormShape    `json:"shape,omitempty"`
	Fields meetup.FieldErrors `json:"fields"`
}

// SubmitMeetupResponse is returned when a submission opened an issue.
type SubmitMeetupResponse struct {
	IssueNumber int             `json:"issue_number"`
	IssueURL    string          `json:"issue_url"`
	Shape       model.FormShape `json:"shape"`
	Meetup      *model.Meetup   `json:"meetup"`
}

// IssueMeetupResponse is the meetup parsed from an issue or a raw body.
type IssueMeetupResponse struct {
	IssueNumber int             `json:"issue_number,omitempty"`
	Shape       model.FormShape `json:"shape"`
	Meetup      *model.Meetup   `json:"meetup"`
}

// RenderResponse carries a rendered issue body.
type RenderResponse struct {
	Title  string        `json:"title"`
	Body   string        `json:"body"`
	Meetup *model.Meetup `json:"meetup"`
}

// SubmissionListResponse represents a paginated list of submissions.
type SubmissionListResponse struct {
	Data       []SubmissionResponse `json:"data"`
	Pagination *Pagination          `json:"pagination"`
}

// SubmissionResponse is a submission log entry with its derived status.
type SubmissionResponse struct {
	*model.Submission
	Status string `json:"status"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ToSubmissionListResponse converts submissions to their list response.
func ToSubmissionListResponse(subs []*model.Submission, nextCursor string, hasMore bool) *SubmissionListResponse {
	data := make([]SubmissionResponse, len(subs))
	for i, s := range subs {
		data[i] = SubmissionResponse{Submission: s, Status: s.Status()}
	}
	return &SubmissionListResponse{
		Data: data,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// ValuesFromJSON reads the named fields out of a JSON object. A field set to
// null counts as absent. Non-string scalars keep their JSON text so they fail
// validation instead of disappearing.
func ValuesFromJSON(data []byte, fields []string) (meetup.Values, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}

	values := make(meetup.Values, len(fields))
	for _, field := range fields {
		msg, ok := raw[field]
		if !ok || string(msg) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			values[field] = s
			continue
		}
		values[field] = string(msg)
	}
	return values, nil
}

// ValuesFromForm reads the named fields out of a decoded form. Only the
// first value of a repeated field is used.
func ValuesFromForm(form url.Values, fields []string) meetup.Values {
	values := make(meetup.Values, len(fields))
	for _, field := range fields {
		if vs, ok := form[field]; ok && len(vs) > 0 {
			values[field] = vs[0]
		}
	}
	return values
}

// ParseIssueNumber parses a positive issue number path parameter.
func ParseIssueNumber(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
