// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/meetupbot/meetupbot/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSubmissionsSchema drops and recreates the submissions table.
func ResetSubmissionsSchema(ctx context.Context, pool *pgxpool.Pool) error {
	return resetSchema(ctx, pool, "000001_submissions")
}

func resetSchema(ctx context.Context, pool *pgxpool.Pool, migration string) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	for _, step := range []string{"down", "up"} {
		path := filepath.Join(root, "migrations", migration+"."+step+".sql")
		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s migration: %w", step, err)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s migration: %w", step, err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// NewTestMeetup returns a valid meetup.
func NewTestMeetup(t testing.TB) *model.Meetup {
	t.Helper()
	return &model.Meetup{
		Title:         "Go meetup",
		Description:   "Talks and pizza.",
		Date:          time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC),
		Location:      "1 Main St",
		LocationLink:  "https://maps.example.com/1-main-st",
		Organizer:     "Gophers",
		OrganizerLink: "https://gophers.example.com",
		SignupLink:    "https://signup.example.com/go",
	}
}

// NewTestSubmission returns an accepted submission for issueNumber.
func NewTestSubmission(t testing.TB, issueNumber int) *model.Submission {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	m := NewTestMeetup(t)
	return &model.Submission{
		ID:          ulid.Make().String(),
		IssueNumber: issueNumber,
		IssueURL:    fmt.Sprintf("https://github.com/meetups/meetups/issues/%d", issueNumber),
		Shape:       model.FormShapeRobot,
		Source:      model.SourceWeb,
		Title:       m.Title,
		Organizer:   m.Organizer,
		MeetupDate:  &m.Date,
		Body:        "### Meetup title\n\nGo meetup",
		Labels:      []string{"meetup"},
		CreatedAt:   now,
	}
}
