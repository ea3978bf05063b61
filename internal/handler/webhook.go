package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/meetupbot/meetupbot/internal/handler/dto"
	"github.com/meetupbot/meetupbot/internal/meetup"
	"github.com/meetupbot/meetupbot/internal/metrics"
	"github.com/meetupbot/meetupbot/internal/model"
	"github.com/meetupbot/meetupbot/internal/service"
	"github.com/meetupbot/meetupbot/internal/webhook"
)

// DeliveryLog remembers processed webhook deliveries.
type DeliveryLog interface {
	MarkDelivery(ctx context.Context, deliveryID string) (bool, error)
	ForgetDelivery(ctx context.Context, deliveryID string) error
}

// WebhookHandler receives GitHub issue events.
type WebhookHandler struct {
	svc        *service.MeetupService
	deliveries DeliveryLog
	secret     string
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(svc *service.MeetupService, deliveries DeliveryLog, secret string, recorder metrics.Recorder, logger *slog.Logger) *WebhookHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &WebhookHandler{
		svc:        svc,
		deliveries: deliveries,
		secret:     secret,
		metrics:    recorder,
		logger:     logger.With(slog.String("handler", "webhook")),
	}
}

// WebhookResponse acknowledges a delivery.
type WebhookResponse struct {
	Status      string             `json:"status"`
	IssueNumber int                `json:"issue_number,omitempty"`
	Shape       model.FormShape    `json:"shape,omitempty"`
	Valid       *bool              `json:"valid,omitempty"`
	Fields      meetup.FieldErrors `json:"fields,omitempty"`
}

// GitHub handles POST /webhooks/github.
func (h *WebhookHandler) GitHub(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.reject(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return
	}

	if err := webhook.ValidateSignature(h.secret, r.Header.Get(webhook.HeaderSignature), payload); err != nil {
		h.logger.Warn("webhook_signature_invalid",
			slog.String("delivery_id", r.Header.Get(webhook.HeaderDeliveryID)),
			slog.String("error", err.Error()),
		)
		h.reject(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Invalid webhook signature")
		return
	}

	event := r.Header.Get(webhook.HeaderEvent)
	switch event {
	case webhook.EventPing:
		h.metrics.IncWebhookDelivery(metrics.DeliveryIgnored)
		writeJSON(w, http.StatusOK, WebhookResponse{Status: "pong"})
		return
	case webhook.EventIssues:
	default:
		h.metrics.IncWebhookDelivery(metrics.DeliveryIgnored)
		writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "ignored"})
		return
	}

	deliveryID := r.Header.Get(webhook.HeaderDeliveryID)
	if deliveryID != "" && h.deliveries != nil {
		first, err := h.deliveries.MarkDelivery(r.Context(), deliveryID)
		if err != nil {
			// Without dedupe the worst case is a repeated submission record.
			h.logger.Warn("webhook_dedupe_failed", slog.String("delivery_id", deliveryID), slog.String("error", err.Error()))
		} else if !first {
			h.metrics.IncWebhookDelivery(metrics.DeliveryDuplicate)
			writeJSON(w, http.StatusOK, WebhookResponse{Status: "duplicate"})
			return
		}
	}

	ev, err := webhook.DecodeIssueEvent(payload)
	if err != nil {
		h.forget(r.Context(), deliveryID)
		h.reject(w, http.StatusBadRequest, "MALFORMED_PAYLOAD", "Malformed issue event")
		return
	}

	res, err := h.svc.IngestIssueEvent(r.Context(), ev)
	if errors.Is(err, service.ErrEventIgnored) {
		h.metrics.IncWebhookDelivery(metrics.DeliveryIgnored)
		writeJSON(w, http.StatusAccepted, WebhookResponse{Status: "ignored", IssueNumber: ev.Issue.Number})
		return
	}
	if err != nil {
		h.forget(r.Context(), deliveryID)
		h.logger.Error("webhook_ingest_failed",
			slog.String("delivery_id", deliveryID),
			slog.Int("issue", ev.Issue.Number),
			slog.String("error", err.Error()),
		)
		h.metrics.IncWebhookDelivery(metrics.DeliveryRejected)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "An internal error occurred", Code: "INTERNAL_ERROR"})
		return
	}

	h.metrics.IncWebhookDelivery(metrics.DeliveryProcessed)
	h.logger.Info("webhook_processed",
		slog.String("delivery_id", deliveryID),
		slog.String("action", ev.Action),
		slog.Int("issue", res.Number),
		slog.String("shape", string(res.Shape)),
		slog.Bool("valid", res.Valid()),
		slog.Bool("recorded", res.Recorded),
	)

	valid := res.Valid()
	writeJSON(w, http.StatusOK, WebhookResponse{
		Status:      "processed",
		IssueNumber: res.Number,
		Shape:       res.Shape,
		Valid:       &valid,
		Fields:      res.Fields,
	})
}

func (h *WebhookHandler) forget(ctx context.Context, deliveryID string) {
	if deliveryID == "" || h.deliveries == nil {
		return
	}
	if err := h.deliveries.ForgetDelivery(ctx, deliveryID); err != nil {
		h.logger.Warn("webhook_forget_failed", slog.String("delivery_id", deliveryID), slog.String("error", err.Error()))
	}
}

func (h *WebhookHandler) reject(w http.ResponseWriter, status int, code, message string) {
	h.metrics.IncWebhookDelivery(metrics.DeliveryRejected)
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}
