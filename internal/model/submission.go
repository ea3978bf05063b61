package model

import "time"

// Submission statuses.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
)

// Submission records one attempt to turn an issue body into a Meetup.
// IssueNumber is zero for submissions rejected before an issue existed.
type Submission struct {
	ID           string     `json:"id"`
	IssueNumber  int        `json:"issue_number,omitempty"`
	IssueURL     string     `json:"issue_url,omitempty"`
	Shape        FormShape  `json:"shape"`
	Source       string     `json:"source"`
	Title        string     `json:"title,omitempty"`
	Organizer    string     `json:"organizer,omitempty"`
	MeetupDate   *time.Time `json:"meetup_date,omitempty"`
	Body         string     `json:"-"`
	FailedFields []string   `json:"failed_fields,omitempty"`
	Labels       []string   `json:"labels,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Status reports whether the submission produced a valid Meetup.
func (s *Submission) Status() string {
	if len(s.FailedFields) > 0 {
		return SubmissionRejected
	}
	return SubmissionAccepted
}
