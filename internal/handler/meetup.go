package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meetupbot/meetupbot/internal/auth"
	"github.com/meetupbot/meetupbot/internal/handler/dto"
	"github.com/meetupbot/meetupbot/internal/meetup"
	"github.com/meetupbot/meetupbot/internal/model"
	"github.com/meetupbot/meetupbot/internal/service"
)

// MeetupHandler handles HTTP requests for meetup operations.
type MeetupHandler struct {
	svc    *service.MeetupService
	logger *slog.Logger
}

// NewMeetupHandler creates a new MeetupHandler.
func NewMeetupHandler(svc *service.MeetupService, logger *slog.Logger) *MeetupHandler {
	return &MeetupHandler{
		svc:    svc,
		logger: logger.With(slog.String("handler", "meetup")),
	}
}

// Submit handles POST /api/v1/meetups.
// The body is a human-shaped submission, as JSON or as a url-encoded form.
func (h *MeetupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	values, ok := h.readValues(w, r, meetup.HumanFields)
	if !ok {
		return
	}

	res, err := h.svc.SubmitHuman(r.Context(), values, auth.SourceFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, model.FormShapeHuman, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubmitResponse(res))
}

// SubmitRobot handles POST /api/v1/meetups/robot.
func (h *MeetupHandler) SubmitRobot(w http.ResponseWriter, r *http.Request) {
	values, ok := h.readValues(w, r, meetup.RobotFields)
	if !ok {
		return
	}

	res, err := h.svc.SubmitRobot(r.Context(), values, auth.SourceFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, model.FormShapeRobot, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubmitResponse(res))
}

// Parse handles POST /api/v1/meetups/parse.
// The body is raw issue text.
func (h *MeetupHandler) Parse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return
	}

	shape, m, err := h.svc.ParseBody(string(body))
	if err != nil {
		h.handleServiceError(w, shape, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IssueMeetupResponse{Shape: shape, Meetup: m})
}

// Render handles POST /api/v1/meetups/render.
// The body is a robot-shaped submission; nothing is filed.
func (h *MeetupHandler) Render(w http.ResponseWriter, r *http.Request) {
	values, ok := h.readValues(w, r, meetup.RobotFields)
	if !ok {
		return
	}

	body, m, err := h.svc.RenderBody(values)
	if err != nil {
		h.handleServiceError(w, model.FormShapeRobot, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RenderResponse{Title: m.Title, Body: body, Meetup: m})
}

// IssueMeetup handles GET /api/v1/issues/{number}/meetup.
func (h *MeetupHandler) IssueMeetup(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	im, err := h.svc.IssueMeetup(r.Context(), number)
	if err != nil {
		h.handleServiceError(w, "", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IssueMeetupResponse{
		IssueNumber: im.Number,
		Shape:       im.Shape,
		Meetup:      im.Meetup,
	})
}

// PullRequest handles GET /api/v1/issues/{number}/pull-request.
func (h *MeetupHandler) PullRequest(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	body, err := h.svc.PullRequestBody(r.Context(), number)
	if err != nil {
		h.handleServiceError(w, "", err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// Calendar handles GET /api/v1/issues/{number}/calendar.ics.
func (h *MeetupHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	number, ok := h.issueNumber(w, r)
	if !ok {
		return
	}

	cal, err := h.svc.Calendar(r.Context(), number)
	if err != nil {
		h.handleServiceError(w, "", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="meetup-%d.ics"`, number))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, cal)
}

// ListSubmissions handles GET /api/v1/submissions.
func (h *MeetupHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var limit int
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	out, err := h.svc.ListSubmissions(r.Context(), service.ListSubmissionsInput{
		Cursor: query.Get("cursor"),
		Limit:  limit,
		Shape:  query.Get("shape"),
		Status: query.Get("status"),
	})
	if err != nil {
		h.handleServiceError(w, "", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubmissionListResponse(out.Submissions, out.NextCursor, out.HasMore))
}

// readValues decodes a JSON or url-encoded submission body.
func (h *MeetupHandler) readValues(w http.ResponseWriter, r *http.Request, fields []string) (meetup.Values, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
			return nil, false
		}
		return dto.ValuesFromForm(r.PostForm, fields), true
	case "application/json", "":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
			return nil, false
		}
		values, err := dto.ValuesFromJSON(data, fields)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
			return nil, false
		}
		return values, true
	default:
		h.writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Use application/json or a url-encoded form")
		return nil, false
	}
}

func (h *MeetupHandler) issueNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	number, ok := dto.ParseIssueNumber(chi.URLParam(r, "number"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "INVALID_ISSUE_NUMBER", "Issue number must be a positive integer")
	}
	return number, ok
}

// handleServiceError maps service errors to HTTP responses.
func (h *MeetupHandler) handleServiceError(w http.ResponseWriter, shape model.FormShape, err error) {
	var invalid *service.InvalidIssueError
	if errors.As(err, &invalid) {
		fields, _ := meetup.AsFieldErrors(invalid.Err)
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Error:  fmt.Sprintf("Issue #%d does not describe a valid meetup", invalid.Number),
			Code:   "INVALID_ISSUE",
			Shape:  invalid.Shape,
			Fields: fields,
		})
		return
	}

	if fields, ok := meetup.AsFieldErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Error:  "Meetup failed validation",
			Code:   "VALIDATION_FAILED",
			Shape:  shape,
			Fields: fields,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrIssueNotFound):
		h.writeError(w, http.StatusNotFound, "ISSUE_NOT_FOUND", "Issue not found")
	case errors.Is(err, service.ErrTrackerFailure):
		h.logger.Error("tracker_error", slog.String("error", err.Error()))
		h.writeError(w, http.StatusBadGateway, "TRACKER_UNAVAILABLE", "The issue tracker could not be reached")
	case errors.Is(err, service.ErrInvalidCursor):
		h.writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, service.ErrInvalidFilter):
		h.writeError(w, http.StatusBadRequest, "INVALID_FILTER", "Unknown shape or status filter")
	default:
		h.logger.Error("internal_error", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *MeetupHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func toSubmitResponse(res *service.SubmitResult) dto.SubmitMeetupResponse {
	return dto.SubmitMeetupResponse{
		IssueNumber: res.IssueNumber,
		IssueURL:    res.IssueURL,
		Shape:       res.Shape,
		Meetup:      res.Meetup,
	}
}
