package metrics

import (
	"sync/atomic"
	"time"
)

// ShapeCounts splits a counter by form shape.
type ShapeCounts struct {
	Human uint64
	Robot uint64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	MeetupsSubmitted       ShapeCounts
	MeetupsRejected        ShapeCounts
	IssuesCreated          uint64
	IssuesParsedValid      ShapeCounts
	IssuesParsedInvalid    ShapeCounts
	MeetupCacheHits        uint64
	MeetupCacheMisses      uint64
	TrackerDurationCount   uint64
	TrackerDurationTotalNs int64
	WebhookDeliveries      map[string]uint64
}

type shapeCounter struct {
	human atomic.Uint64
	robot atomic.Uint64
}

func (c *shapeCounter) inc(shape string) {
	if shape == "human" {
		c.human.Add(1)
		return
	}
	c.robot.Add(1)
}

func (c *shapeCounter) load() ShapeCounts {
	return ShapeCounts{Human: c.human.Load(), Robot: c.robot.Load()}
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	meetupsSubmitted       shapeCounter
	meetupsRejected        shapeCounter
	issuesCreated          atomic.Uint64
	issuesParsedValid      shapeCounter
	issuesParsedInvalid    shapeCounter
	meetupCacheHits        atomic.Uint64
	meetupCacheMisses      atomic.Uint64
	trackerDurationCount   atomic.Uint64
	trackerDurationTotalNs atomic.Int64

	deliveryProcessed atomic.Uint64
	deliveryDuplicate atomic.Uint64
	deliveryIgnored   atomic.Uint64
	deliveryRejected  atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		MeetupsSubmitted:       m.meetupsSubmitted.load(),
		MeetupsRejected:        m.meetupsRejected.load(),
		IssuesCreated:          m.issuesCreated.Load(),
		IssuesParsedValid:      m.issuesParsedValid.load(),
		IssuesParsedInvalid:    m.issuesParsedInvalid.load(),
		MeetupCacheHits:        m.meetupCacheHits.Load(),
		MeetupCacheMisses:      m.meetupCacheMisses.Load(),
		TrackerDurationCount:   m.trackerDurationCount.Load(),
		TrackerDurationTotalNs: m.trackerDurationTotalNs.Load(),
		WebhookDeliveries: map[string]uint64{
			DeliveryProcessed: m.deliveryProcessed.Load(),
			DeliveryDuplicate: m.deliveryDuplicate.Load(),
			DeliveryIgnored:   m.deliveryIgnored.Load(),
			DeliveryRejected:  m.deliveryRejected.Load(),
		},
	}
}

// IncMeetupSubmitted increments the accepted submission counter.
func (m *InMemoryRecorder) IncMeetupSubmitted(shape string) {
	m.meetupsSubmitted.inc(shape)
}

// IncMeetupRejected increments the rejected submission counter.
func (m *InMemoryRecorder) IncMeetupRejected(shape string) {
	m.meetupsRejected.inc(shape)
}

// IncIssueCreated increments the issue created counter.
func (m *InMemoryRecorder) IncIssueCreated() {
	m.issuesCreated.Add(1)
}

// IncIssueParsed counts an issue body parse.
func (m *InMemoryRecorder) IncIssueParsed(shape string, valid bool) {
	if valid {
		m.issuesParsedValid.inc(shape)
		return
	}
	m.issuesParsedInvalid.inc(shape)
}

// IncMeetupCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncMeetupCacheHit() {
	m.meetupCacheHits.Add(1)
}

// IncMeetupCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncMeetupCacheMiss() {
	m.meetupCacheMisses.Add(1)
}

// ObserveTrackerDuration records a tracker call duration.
func (m *InMemoryRecorder) ObserveTrackerDuration(duration time.Duration) {
	m.trackerDurationCount.Add(1)
	m.trackerDurationTotalNs.Add(duration.Nanoseconds())
}

// IncWebhookDelivery counts a webhook delivery by outcome.
func (m *InMemoryRecorder) IncWebhookDelivery(outcome string) {
	switch outcome {
	case DeliveryProcessed:
		m.deliveryProcessed.Add(1)
	case DeliveryDuplicate:
		m.deliveryDuplicate.Add(1)
	case DeliveryIgnored:
		m.deliveryIgnored.Add(1)
	default:
		m.deliveryRejected.Add(1)
	}
}
