package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
)

// Cache key prefixes and TTLs.
const (
	meetupKeyPrefix   = "meetup:issue:"
	negCacheKeySuffix = ":neg"

	// DefaultMeetupTTL is the TTL for cached meetups.
	DefaultMeetupTTL = time.Hour

	// NegativeCacheTTL is the TTL for issues known not to exist.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// CachedMeetup is a parsed issue held in Redis.
type CachedMeetup struct {
	Shape  model.FormShape
	Meetup *model.Meetup
}

func meetupKey(issueNumber int) string {
	return meetupKeyPrefix + strconv.Itoa(issueNumber)
}

// GetMeetup retrieves the parsed meetup of an issue.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetMeetup(ctx context.Context, issueNumber int) (*CachedMeetup, error) {
	result, err := c.client.HGetAll(ctx, meetupKey(issueNumber)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached, err := fieldsToMeetup(result)
	if err != nil {
		// Corrupted entry - treat as miss
		return nil, ErrCacheMiss
	}

	return cached, nil
}

// SetMeetup stores the parsed meetup of an issue. A non-positive ttl uses
// DefaultMeetupTTL.
func (c *Cache) SetMeetup(ctx context.Context, issueNumber int, shape model.FormShape, m *model.Meetup, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultMeetupTTL
	}
	key := meetupKey(issueNumber)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, meetupToFields(shape, m))
	pipe.Expire(ctx, key, ttl)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache meetup: %w", err)
	}

	return nil
}

// DeleteMeetup removes an issue's cached meetup.
func (c *Cache) DeleteMeetup(ctx context.Context, issueNumber int) error {
	key := meetupKey(issueNumber)

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete meetup from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if an issue is known not to exist.
func (c *Cache) IsNegativelyCached(ctx context.Context, issueNumber int) (bool, error) {
	exists, err := c.client.Exists(ctx, meetupKey(issueNumber)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks an issue as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, issueNumber int) error {
	err := c.client.SetEx(ctx, meetupKey(issueNumber)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}

func meetupToFields(shape model.FormShape, m *model.Meetup) map[string]any {
	return map[string]any{
		"shape":          string(shape),
		"title":          m.Title,
		"description":    m.Description,
		"date":           m.Date.UTC().Format(time.RFC3339Nano),
		"location":       m.Location,
		"location_link":  m.LocationLink,
		"organizer":      m.Organizer,
		"organizer_link": m.OrganizerLink,
		"signup_link":    m.SignupLink,
	}
}

func fieldsToMeetup(fields map[string]string) (*CachedMeetup, error) {
	shape := model.FormShape(fields["shape"])
	if !shape.IsValid() {
		return nil, fmt.Errorf("cached meetup has shape %q", fields["shape"])
	}

	date, err := time.Parse(time.RFC3339Nano, fields["date"])
	if err != nil {
		return nil, fmt.Errorf("cached meetup date: %w", err)
	}

	return &CachedMeetup{
		Shape: shape,
		Meetup: &model.Meetup{
			Title:         fields["title"],
			Description:   fields["description"],
			Date:          date,
			Location:      fields["location"],
			LocationLink:  fields["location_link"],
			Organizer:     fields["organizer"],
			OrganizerLink: fields["organizer_link"],
			SignupLink:    fields["signup_link"],
		},
	}, nil
}
