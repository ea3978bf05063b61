package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncMeetupSubmitted is a no-op.
func (n *NoopRecorder) IncMeetupSubmitted(shape string) {}

// IncMeetupRejected is a no-op.
func (n *NoopRecorder) IncMeetupRejected(shape string) {}

// IncIssueCreated is a no-op.
func (n *NoopRecorder) IncIssueCreated() {}

// IncIssueParsed is a no-op.
func (n *NoopRecorder) IncIssueParsed(shape string, valid bool) {}

// IncMeetupCacheHit is a no-op.
func (n *NoopRecorder) IncMeetupCacheHit() {}

// IncMeetupCacheMiss is a no-op.
func (n *NoopRecorder) IncMeetupCacheMiss() {}

// ObserveTrackerDuration is a no-op.
func (n *NoopRecorder) ObserveTrackerDuration(duration time.Duration) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(outcome string) {}
