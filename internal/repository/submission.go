package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/meetupbot/meetupbot/internal/model"
)

// Common errors for submission repository operations.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
)

// SubmissionFilter narrows ListSubmissions.
type SubmissionFilter struct {
	Shape  model.FormShape
	Status string // model.SubmissionAccepted or model.SubmissionRejected
}

// PaginationCursor represents decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

const submissionColumns = `id, issue_number, issue_url, shape, source, title, organizer, meetup_date, body, failed_fields, labels, created_at`

// CreateSubmission inserts a submission record.
func (r *Repository) CreateSubmission(ctx context.Context, s *model.Submission) error {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var issueNumber *int
	if s.IssueNumber > 0 {
		issueNumber = &s.IssueNumber
	}

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		issueNumber,
		s.IssueURL,
		string(s.Shape),
		s.Source,
		s.Title,
		s.Organizer,
		s.MeetupDate,
		s.Body,
		pq.Array(nonNil(s.FailedFields)),
		pq.Array(nonNil(s.Labels)),
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// GetLatestSubmissionByIssue returns the newest submission recorded for an issue.
func (r *Repository) GetLatestSubmissionByIssue(ctx context.Context, issueNumber int) (*model.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE issue_number = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	s, err := scanSubmission(r.pool.QueryRow(ctx, query, issueNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission by issue: %w", err)
	}

	return s, nil
}

// ListSubmissions retrieves a page of submissions, newest first.
func (r *Repository) ListSubmissions(ctx context.Context, filter SubmissionFilter, cursor string, limit int) ([]*model.Submission, string, error) {
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE TRUE
	`
	var args []any
	argIndex := 1

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	if filter.Shape != "" {
		query += fmt.Sprintf(" AND shape = $%d", argIndex)
		args = append(args, string(filter.Shape))
		argIndex++
	}

	switch filter.Status {
	case model.SubmissionAccepted:
		query += " AND cardinality(failed_fields) = 0"
	case model.SubmissionRejected:
		query += " AND cardinality(failed_fields) > 0"
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // one extra to detect another page

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []*model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan submission: %w", err)
		}
		out = append(out, s)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating submissions: %w", err)
	}

	var nextCursor string
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return out, nextCursor, nil
}

// scanSubmission scans a row from QueryRow or Query.
func scanSubmission(row pgx.Row) (*model.Submission, error) {
	var (
		s           model.Submission
		issueNumber *int
		shape       string
		failed      []string
		labels      []string
	)

	err := row.Scan(
		&s.ID,
		&issueNumber,
		&s.IssueURL,
		&shape,
		&s.Source,
		&s.Title,
		&s.Organizer,
		&s.MeetupDate,
		&s.Body,
		pq.Array(&failed),
		pq.Array(&labels),
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if issueNumber != nil {
		s.IssueNumber = *issueNumber
	}
	s.Shape = model.FormShape(shape)
	s.FailedFields = failed
	s.Labels = labels

	return &s, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}
	if cursor.ID == "" || cursor.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}
