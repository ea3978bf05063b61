// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/meetupbot/meetupbot/internal/cache"
	"github.com/meetupbot/meetupbot/internal/meetup"
	"github.com/meetupbot/meetupbot/internal/metrics"
	"github.com/meetupbot/meetupbot/internal/model"
	"github.com/meetupbot/meetupbot/internal/repository"
	"github.com/meetupbot/meetupbot/internal/tracker"
	"github.com/meetupbot/meetupbot/internal/webhook"
)

// Service errors.
var (
	ErrIssueNotFound  = errors.New("issue not found")
	ErrEventIgnored   = errors.New("issue event ignored")
	ErrInvalidCursor  = errors.New("invalid pagination cursor")
	ErrInvalidFilter  = errors.New("invalid submission filter")
	ErrTrackerFailure = errors.New("issue tracker unavailable")
)

// SourceWebhook marks submissions ingested from tracker deliveries.
const SourceWebhook = "webhook"

// Submission page sizes.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// InvalidIssueError reports an issue whose body does not describe a valid
// meetup. Err is a meetup.FieldErrors.
type InvalidIssueError struct {
	Number int
	Shape  model.FormShape
	Err    error
}

func (e *InvalidIssueError) Error() string {
	return fmt.Sprintf("issue #%d: %v", e.Number, e.Err)
}

func (e *InvalidIssueError) Unwrap() error {
	return e.Err
}

// IssueTracker opens and reads issues.
type IssueTracker interface {
	CreateIssue(ctx context.Context, in tracker.NewIssue) (*tracker.Issue, error)
	GetIssue(ctx context.Context, number int) (*tracker.Issue, error)
}

// SubmissionStore persists the submission log.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s *model.Submission) error
	GetLatestSubmissionByIssue(ctx context.Context, issueNumber int) (*model.Submission, error)
	ListSubmissions(ctx context.Context, filter repository.SubmissionFilter, cursor string, limit int) ([]*model.Submission, string, error)
}

// MeetupCache holds parsed issues.
type MeetupCache interface {
	GetMeetup(ctx context.Context, issueNumber int) (*cache.CachedMeetup, error)
	SetMeetup(ctx context.Context, issueNumber int, shape model.FormShape, m *model.Meetup, ttl time.Duration) error
	DeleteMeetup(ctx context.Context, issueNumber int) error
	IsNegativelyCached(ctx context.Context, issueNumber int) (bool, error)
	SetNegativeCache(ctx context.Context, issueNumber int) error
}

// MeetupServiceConfig wires a MeetupService.
type MeetupServiceConfig struct {
	Tracker    IssueTracker
	Store      SubmissionStore
	Cache      MeetupCache
	Metrics    metrics.Recorder
	Logger     *slog.Logger
	Location   *time.Location // human date and time are read here; UTC when nil
	Labels     []string
	Repository string // owner/name, used in calendar UIDs
	CacheTTL   time.Duration
	Duration   time.Duration // calendar event length
	Now        func() time.Time
}

// MeetupService turns submissions into tracker issues and issues back into
// meetups.
type MeetupService struct {
	tracker    IssueTracker
	store      SubmissionStore
	cache      MeetupCache
	metrics    metrics.Recorder
	logger     *slog.Logger
	loc        *time.Location
	labels     []string
	repository string
	cacheTTL   time.Duration
	duration   time.Duration
	now        func() time.Time
}

// NewMeetupService creates a new MeetupService.
func NewMeetupService(cfg MeetupServiceConfig) *MeetupService {
	s := &MeetupService{
		tracker:    cfg.Tracker,
		store:      cfg.Store,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		loc:        cfg.Location,
		labels:     cfg.Labels,
		repository: cfg.Repository,
		cacheTTL:   cfg.CacheTTL,
		duration:   cfg.Duration,
		now:        cfg.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.NewNoop()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.duration <= 0 {
		s.duration = meetup.DefaultMeetupDuration
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.logger = s.logger.With(slog.String("component", "meetup_service"))
	return s
}

// Location returns the timezone human submissions are read in.
func (s *MeetupService) Location() *time.Location {
	return s.loc
}

// SubmitResult describes an opened meetup issue.
type SubmitResult struct {
	IssueNumber int
	IssueURL    string
	Shape       model.FormShape
	Meetup      *model.Meetup
}

// SubmitHuman validates a human submission and opens an issue for it.
// Validation failures are returned as meetup.FieldErrors.
func (s *MeetupService) SubmitHuman(ctx context.Context, values meetup.Values, source string) (*SubmitResult, error) {
	form, err := meetup.ParseHumanForm(values)
	if err != nil {
		return nil, s.reject(ctx, model.FormShapeHuman, values, source, err)
	}

	m, err := meetup.HumanFormToMeetup(form, s.loc)
	if err != nil {
		return nil, s.reject(ctx, model.FormShapeHuman, values, source, err)
	}

	return s.openIssue(ctx, model.FormShapeHuman, m, source)
}

// SubmitRobot validates a robot submission and opens an issue for it.
func (s *MeetupService) SubmitRobot(ctx context.Context, values meetup.Values, source string) (*SubmitResult, error) {
	form, err := meetup.ParseRobotForm(values)
	if err != nil {
		return nil, s.reject(ctx, model.FormShapeRobot, values, source, err)
	}

	m, err := meetup.RobotFormToMeetup(form)
	if err != nil {
		return nil, s.reject(ctx, model.FormShapeRobot, values, source, err)
	}

	return s.openIssue(ctx, model.FormShapeRobot, m, source)
}

func (s *MeetupService) openIssue(ctx context.Context, shape model.FormShape, m *model.Meetup, source string) (*SubmitResult, error) {
	body := meetup.RenderIssueBody(m)

	start := time.Now()
	issue, err := s.tracker.CreateIssue(ctx, tracker.NewIssue{
		Title:  m.Title,
		Body:   body,
		Labels: s.labels,
	})
	s.metrics.ObserveTrackerDuration(time.Since(start))
	if err != nil {
		s.logger.Error("issue_create_failed",
			slog.String("shape", string(shape)),
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrTrackerFailure, err)
	}

	s.metrics.IncIssueCreated()
	s.metrics.IncMeetupSubmitted(string(shape))

	// The rendered body always parses as robot shape.
	if err := s.cache.SetMeetup(ctx, issue.Number, model.FormShapeRobot, m, s.cacheTTL); err != nil {
		s.logger.Warn("meetup_cache_set_failed", slog.Int("issue", issue.Number), slog.String("error", err.Error()))
	}

	labels := issue.LabelNames()
	if len(labels) == 0 {
		labels = s.labels
	}
	date := m.Date
	s.record(ctx, &model.Submission{
		IssueNumber: issue.Number,
		IssueURL:    issue.HTMLURL,
		Shape:       shape,
		Source:      source,
		Title:       m.Title,
		Organizer:   m.Organizer,
		MeetupDate:  &date,
		Body:        body,
		Labels:      labels,
	})

	s.logger.Info("meetup_submitted",
		slog.Int("issue", issue.Number),
		slog.String("shape", string(shape)),
		slog.String("source", source),
		slog.Time("date", m.Date),
	)

	return &SubmitResult{
		IssueNumber: issue.Number,
		IssueURL:    issue.HTMLURL,
		Shape:       shape,
		Meetup:      m,
	}, nil
}

// reject logs and records a submission that failed validation, then returns
// err unchanged.
func (s *MeetupService) reject(ctx context.Context, shape model.FormShape, values meetup.Values, source string, err error) error {
	fields, ok := meetup.AsFieldErrors(err)
	if !ok {
		return err
	}

	s.metrics.IncMeetupRejected(string(shape))
	s.logger.Info("meetup_rejected",
		slog.String("shape", string(shape)),
		slog.String("source", source),
		slog.String("fields", strings.Join(fields.Fields(), ",")),
	)

	title, _ := values.Get(meetup.FieldTitle)
	organizer, _ := values.Get(meetup.FieldOrganizer)
	s.record(ctx, &model.Submission{
		Shape:        shape,
		Source:       source,
		Title:        strings.TrimSpace(title),
		Organizer:    strings.TrimSpace(organizer),
		FailedFields: fields.Fields(),
	})

	return err
}

// record stores a submission. The log is best effort: a store failure never
// fails the request.
func (s *MeetupService) record(ctx context.Context, sub *model.Submission) {
	if s.store == nil {
		return
	}
	sub.ID = ulid.Make().String()
	sub.CreatedAt = s.now().UTC()

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		s.logger.Error("submission_record_failed",
			slog.String("submission_id", sub.ID),
			slog.Int("issue", sub.IssueNumber),
			slog.String("error", err.Error()),
		)
	}
}

// IssueMeetup is the meetup described by a tracker issue.
type IssueMeetup struct {
	Number int
	Shape  model.FormShape
	Meetup *model.Meetup
	Cached bool
}

// IssueMeetup reads an issue and re-derives its meetup. An issue whose body
// is not a valid meetup yields an *InvalidIssueError.
func (s *MeetupService) IssueMeetup(ctx context.Context, number int) (*IssueMeetup, error) {
	if number <= 0 {
		return nil, ErrIssueNotFound
	}

	cached, err := s.cache.GetMeetup(ctx, number)
	if err == nil {
		s.metrics.IncMeetupCacheHit()
		return &IssueMeetup{Number: number, Shape: cached.Shape, Meetup: cached.Meetup, Cached: true}, nil
	}
	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncMeetupCacheMiss()
		if missing, _ := s.cache.IsNegativelyCached(ctx, number); missing {
			return nil, ErrIssueNotFound
		}
	} else {
		s.logger.Warn("meetup_cache_get_failed", slog.Int("issue", number), slog.String("error", err.Error()))
	}

	start := time.Now()
	issue, err := s.tracker.GetIssue(ctx, number)
	s.metrics.ObserveTrackerDuration(time.Since(start))
	if err != nil {
		if errors.Is(err, tracker.ErrIssueNotFound) {
			_ = s.cache.SetNegativeCache(ctx, number)
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrTrackerFailure, err)
	}

	shape, m, err := s.ParseBody(issue.Body)
	if err != nil {
		return nil, &InvalidIssueError{Number: number, Shape: shape, Err: err}
	}

	if err := s.cache.SetMeetup(ctx, number, shape, m, s.cacheTTL); err != nil {
		s.logger.Warn("meetup_cache_set_failed", slog.Int("issue", number), slog.String("error", err.Error()))
	}

	return &IssueMeetup{Number: number, Shape: shape, Meetup: m}, nil
}

// ParseBody re-derives a meetup from issue body text in the service timezone.
// The inferred shape is returned even on failure.
func (s *MeetupService) ParseBody(body string) (model.FormShape, *model.Meetup, error) {
	shape, m, err := meetup.ParseIssueBody(body, s.loc)
	s.metrics.IncIssueParsed(string(shape), err == nil)
	return shape, m, err
}

// RenderBody validates robot-shaped values and renders the issue body they
// would be filed with.
func (s *MeetupService) RenderBody(values meetup.Values) (string, *model.Meetup, error) {
	form, err := meetup.ParseRobotForm(values)
	if err != nil {
		return "", nil, err
	}
	m, err := meetup.RobotFormToMeetup(form)
	if err != nil {
		return "", nil, err
	}
	return meetup.RenderIssueBody(m), m, nil
}

// PullRequestBody renders the pull request description that closes an issue.
func (s *MeetupService) PullRequestBody(ctx context.Context, number int) (string, error) {
	im, err := s.IssueMeetup(ctx, number)
	if err != nil {
		return "", err
	}
	return meetup.RenderPullRequestBody(im.Meetup, number), nil
}

// Calendar exports an issue's meetup as an iCalendar document.
func (s *MeetupService) Calendar(ctx context.Context, number int) (string, error) {
	im, err := s.IssueMeetup(ctx, number)
	if err != nil {
		return "", err
	}
	return meetup.RenderCalendar(im.Meetup, meetup.CalendarOptions{
		UID:      s.calendarUID(number),
		Duration: s.duration,
		Stamp:    s.now(),
	}), nil
}

func (s *MeetupService) calendarUID(number int) string {
	repo := s.repository
	if repo == "" {
		repo = "meetupbot"
	}
	return fmt.Sprintf("issue-%d@%s", number, strings.ReplaceAll(repo, "/", "."))
}

// IngestResult is the outcome of ingesting one issue event.
type IngestResult struct {
	Number   int
	Shape    model.FormShape
	Meetup   *model.Meetup
	Fields   meetup.FieldErrors
	Recorded bool
}

// Valid reports whether the issue body described a valid meetup.
func (r *IngestResult) Valid() bool {
	return len(r.Fields) == 0 && r.Meetup != nil
}

// IngestIssueEvent re-parses an issue delivered by the tracker, refreshes the
// cache and records the outcome. An invalid body is a result, not an error.
func (s *MeetupService) IngestIssueEvent(ctx context.Context, ev *webhook.IssueEvent) (*IngestResult, error) {
	if !ev.Relevant() {
		return nil, ErrEventIgnored
	}

	issue := ev.Issue
	shape, m, err := s.ParseBody(issue.Body)

	res := &IngestResult{Number: issue.Number, Shape: shape, Meetup: m}
	if err != nil {
		fields, ok := meetup.AsFieldErrors(err)
		if !ok {
			return nil, err
		}
		res.Fields = fields
	}

	if res.Valid() {
		if err := s.cache.SetMeetup(ctx, issue.Number, shape, m, s.cacheTTL); err != nil {
			s.logger.Warn("meetup_cache_set_failed", slog.Int("issue", issue.Number), slog.String("error", err.Error()))
		}
	} else if err := s.cache.DeleteMeetup(ctx, issue.Number); err != nil {
		s.logger.Warn("meetup_cache_delete_failed", slog.Int("issue", issue.Number), slog.String("error", err.Error()))
	}

	if s.unchanged(ctx, issue.Number, issue.Body) {
		s.logger.Debug("issue_event_unchanged", slog.Int("issue", issue.Number), slog.String("action", ev.Action))
		return res, nil
	}

	sub := &model.Submission{
		IssueNumber:  issue.Number,
		IssueURL:     issue.HTMLURL,
		Shape:        shape,
		Source:       SourceWebhook,
		Title:        issue.Title,
		Body:         issue.Body,
		FailedFields: res.Fields.Fields(),
		Labels:       issue.LabelNames(),
	}
	if m != nil {
		date := m.Date
		sub.Title = m.Title
		sub.Organizer = m.Organizer
		sub.MeetupDate = &date
	}
	s.record(ctx, sub)
	res.Recorded = true

	s.logger.Info("issue_event_ingested",
		slog.Int("issue", issue.Number),
		slog.String("action", ev.Action),
		slog.String("shape", string(shape)),
		slog.Bool("valid", res.Valid()),
		slog.String("failed_fields", strings.Join(res.Fields.Fields(), ",")),
	)

	return res, nil
}

// unchanged reports whether the latest recorded submission for an issue
// already has this body.
func (s *MeetupService) unchanged(ctx context.Context, number int, body string) bool {
	if s.store == nil {
		return false
	}
	latest, err := s.store.GetLatestSubmissionByIssue(ctx, number)
	if err != nil {
		if !errors.Is(err, repository.ErrSubmissionNotFound) {
			s.logger.Warn("submission_lookup_failed", slog.Int("issue", number), slog.String("error", err.Error()))
		}
		return false
	}
	return latest.Body == body
}

// ListSubmissionsInput defines input for listing submissions.
type ListSubmissionsInput struct {
	Cursor string
	Limit  int
	Shape  string
	Status string
}

// ListSubmissionsOutput defines output for listing submissions.
type ListSubmissionsOutput struct {
	Submissions []*model.Submission
	NextCursor  string
	HasMore     bool
}

// ListSubmissions retrieves a page of the submission log, newest first.
func (s *MeetupService) ListSubmissions(ctx context.Context, input ListSubmissionsInput) (*ListSubmissionsOutput, error) {
	switch {
	case input.Limit <= 0:
		input.Limit = DefaultListLimit
	case input.Limit > MaxListLimit:
		input.Limit = MaxListLimit
	}

	filter := repository.SubmissionFilter{Shape: model.FormShape(input.Shape), Status: input.Status}
	if filter.Shape != "" && !filter.Shape.IsValid() {
		return nil, ErrInvalidFilter
	}
	switch filter.Status {
	case "", model.SubmissionAccepted, model.SubmissionRejected:
	default:
		return nil, ErrInvalidFilter
	}

	subs, next, err := s.store.ListSubmissions(ctx, filter, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListSubmissionsOutput{
		Submissions: subs,
		NextCursor:  next,
		HasMore:     next != "",
	}, nil
}
