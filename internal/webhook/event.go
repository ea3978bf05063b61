package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meetupbot/meetupbot/internal/tracker"
)

// Event names this service handles.
const (
	EventIssues = "issues"
	EventPing   = "ping"
)

// ErrMalformedPayload is returned when a delivery body cannot be decoded.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// IssueEvent is the subset of an "issues" delivery the service reads.
type IssueEvent struct {
	Action string        `json:"action"`
	Issue  tracker.Issue `json:"issue"`
}

// Relevant reports whether the action can change the issue body.
func (e *IssueEvent) Relevant() bool {
	switch e.Action {
	case "opened", "edited", "reopened":
		return true
	default:
		return false
	}
}

// DecodeIssueEvent decodes an "issues" delivery.
func DecodeIssueEvent(payload []byte) (*IssueEvent, error) {
	var ev IssueEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if ev.Action == "" || ev.Issue.Number <= 0 {
		return nil, fmt.Errorf("%w: missing action or issue number", ErrMalformedPayload)
	}
	return &ev, nil
}
