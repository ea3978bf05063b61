// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Webhook delivery outcomes.
const (
	DeliveryProcessed = "processed"
	DeliveryDuplicate = "duplicate"
	DeliveryIgnored   = "ignored"
	DeliveryRejected  = "rejected"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Submission metrics; shape is "human" or "robot".
	IncMeetupSubmitted(shape string)
	IncMeetupRejected(shape string)

	// Issue metrics
	IncIssueCreated()
	IncIssueParsed(shape string, valid bool)
	IncMeetupCacheHit()
	IncMeetupCacheMiss()
	ObserveTrackerDuration(duration time.Duration)

	// Webhook metrics
	IncWebhookDelivery(outcome string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
