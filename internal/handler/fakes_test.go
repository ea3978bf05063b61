package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/meetupbot/meetupbot/internal/cache"
	"github.com/meetupbot/meetupbot/internal/metrics"
	"github.com/meetupbot/meetupbot/internal/model"
	"github.com/meetupbot/meetupbot/internal/repository"
	"github.com/meetupbot/meetupbot/internal/service"
	"github.com/meetupbot/meetupbot/internal/tracker"
)

type memTracker struct {
	mu        sync.Mutex
	issues    map[int]*tracker.Issue
	createErr error
}

func (m *memTracker) CreateIssue(_ context.Context, in tracker.NewIssue) (*tracker.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	n := len(m.issues) + 1
	issue := &tracker.Issue{
		Number:  n,
		HTMLURL: "https://github.com/meetups/meetups/issues/" + strconv.Itoa(n),
		Title:   in.Title,
		Body:    in.Body,
	}
	m.issues[n] = issue
	return issue, nil
}

func (m *memTracker) GetIssue(_ context.Context, n int) (*tracker.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if issue, ok := m.issues[n]; ok {
		return issue, nil
	}
	return nil, fmt.Errorf("issue %d: %w", n, tracker.ErrIssueNotFound)
}

type memStore struct {
	mu   sync.Mutex
	subs []*model.Submission
}

func (m *memStore) CreateSubmission(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, s)
	return nil
}

func (m *memStore) GetLatestSubmissionByIssue(_ context.Context, n int) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.subs) - 1; i >= 0; i-- {
		if m.subs[i].IssueNumber == n {
			return m.subs[i], nil
		}
	}
	return nil, repository.ErrSubmissionNotFound
}

func (m *memStore) ListSubmissions(_ context.Context, filter repository.SubmissionFilter, cursor string, limit int) ([]*model.Submission, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cursor != "" {
		return nil, "", repository.ErrInvalidCursor
	}
	var out []*model.Submission
	for i := len(m.subs) - 1; i >= 0 && len(out) < limit; i-- {
		if filter.Status == "" || m.subs[i].Status() == filter.Status {
			out = append(out, m.subs[i])
		}
	}
	return out, "", nil
}

// memCache never caches meetups so every read reaches the tracker.
type memCache struct{}

func (memCache) GetMeetup(context.Context, int) (*cache.CachedMeetup, error) {
	return nil, cache.ErrCacheMiss
}

func (memCache) SetMeetup(context.Context, int, model.FormShape, *model.Meetup, time.Duration) error {
	return nil
}

func (memCache) DeleteMeetup(context.Context, int) error { return nil }
func (memCache) IsNegativelyCached(context.Context, int) (bool, error) { return false, nil }
func (memCache) SetNegativeCache(context.Context, int) error { return nil }

type memDeliveries struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memDeliveries) MarkDelivery(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memDeliveries) ForgetDelivery(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, id)
	return nil
}

type handlerEnv struct {
	svc     *service.MeetupService
	tracker *memTracker
	store   *memStore
	metrics *metrics.InMemoryRecorder
	logger  *slog.Logger
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		tracker: &memTracker{issues: make(map[int]*tracker.Issue)},
		store:   &memStore{},
		metrics: metrics.NewInMemory(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	env.svc = service.NewMeetupService(service.MeetupServiceConfig{
		Tracker:    env.tracker,
		Store:      env.store,
		Cache:      memCache{},
		Metrics:    env.metrics,
		Logger:     env.logger,
		Labels:     []string{"meetup"},
		Repository: "meetups/meetups",
		Now:        func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) },
	})
	return env
}
