package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/meetupbot/meetupbot/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeShapeMetric(w, "meetupbot_meetups_submitted_total", "", snap.MeetupsSubmitted)
	writeShapeMetric(w, "meetupbot_meetups_rejected_total", "", snap.MeetupsRejected)

	writeMetric(w, "meetupbot_issues_created_total %d\n", snap.IssuesCreated)
	writeShapeMetric(w, "meetupbot_issues_parsed_total", `,valid="true"`, snap.IssuesParsedValid)
	writeShapeMetric(w, "meetupbot_issues_parsed_total", `,valid="false"`, snap.IssuesParsedInvalid)

	writeMetric(w, "meetupbot_meetup_cache_hits_total %d\n", snap.MeetupCacheHits)
	writeMetric(w, "meetupbot_meetup_cache_misses_total %d\n", snap.MeetupCacheMisses)
	writeMetric(w, "meetupbot_tracker_duration_seconds_count %d\n", snap.TrackerDurationCount)
	writeMetric(w, "meetupbot_tracker_duration_seconds_sum %.6f\n", float64(snap.TrackerDurationTotalNs)/1e9)

	outcomes := make([]string, 0, len(snap.WebhookDeliveries))
	for outcome := range snap.WebhookDeliveries {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		writeMetric(w, "meetupbot_webhook_deliveries_total{outcome=%q} %d\n", outcome, snap.WebhookDeliveries[outcome])
	}
}

func writeShapeMetric(w http.ResponseWriter, name, extraLabels string, counts metrics.ShapeCounts) {
	writeMetric(w, "%s{shape=\"human\"%s} %d\n", name, extraLabels, counts.Human)
	writeMetric(w, "%s{shape=\"robot\"%s} %d\n", name, extraLabels, counts.Robot)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
