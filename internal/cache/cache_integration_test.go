//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meetupbot/meetupbot/internal/model"
	"github.com/meetupbot/meetupbot/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	c, err := New(ctx, testutil.RequireEnv(t, "REDIS_URL"))
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationCache_Meetup(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if _, err := c.GetMeetup(ctx, 1); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("GetMeetup on empty cache = %v, want ErrCacheMiss", err)
	}

	m := testutil.NewTestMeetup(t)
	if err := c.SetNegativeCache(ctx, 1); err != nil {
		t.Fatalf("SetNegativeCache failed: %v", err)
	}
	if err := c.SetMeetup(ctx, 1, model.FormShapeRobot, m, time.Minute); err != nil {
		t.Fatalf("SetMeetup failed: %v", err)
	}

	neg, err := c.IsNegativelyCached(ctx, 1)
	if err != nil {
		t.Fatalf("IsNegativelyCached failed: %v", err)
	}
	if neg {
		t.Error("SetMeetup should clear the negative entry")
	}

	got, err := c.GetMeetup(ctx, 1)
	if err != nil {
		t.Fatalf("GetMeetup failed: %v", err)
	}
	if got.Meetup.Title != m.Title || !got.Meetup.Date.Equal(m.Date) {
		t.Errorf("GetMeetup = %+v", got.Meetup)
	}

	if err := c.DeleteMeetup(ctx, 1); err != nil {
		t.Fatalf("DeleteMeetup failed: %v", err)
	}
	if _, err := c.GetMeetup(ctx, 1); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetMeetup after delete = %v, want ErrCacheMiss", err)
	}
}

func TestIntegrationCache_MarkDelivery(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	first, err := c.MarkDelivery(ctx, "delivery-1")
	if err != nil || !first {
		t.Fatalf("first MarkDelivery = %v, %v; want true, nil", first, err)
	}

	again, err := c.MarkDelivery(ctx, "delivery-1")
	if err != nil || again {
		t.Fatalf("second MarkDelivery = %v, %v; want false, nil", again, err)
	}

	if err := c.ForgetDelivery(ctx, "delivery-1"); err != nil {
		t.Fatalf("ForgetDelivery failed: %v", err)
	}
	if retry, _ := c.MarkDelivery(ctx, "delivery-1"); !retry {
		t.Error("MarkDelivery after forget should succeed")
	}
}

func TestIntegrationCache_Robot(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if got, _ := c.GetRobot(ctx, "k"); got != nil {
		t.Fatalf("GetRobot on empty cache = %+v", got)
	}

	robot := &model.Robot{KeyPrefix: "abc123", Env: "live"}
	if err := c.SetRobot(ctx, "k", robot); err != nil {
		t.Fatalf("SetRobot failed: %v", err)
	}

	got, err := c.GetRobot(ctx, "k")
	if err != nil || got == nil || got.KeyPrefix != "abc123" {
		t.Errorf("GetRobot = %+v, %v", got, err)
	}
}

func TestIntegrationCache_RobotRateLimit(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	for i := 0; i < 3; i++ {
		res, err := c.CheckRobotRateLimit(ctx, "abc123", 60, 3)
		if err != nil || !res.Allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i, res.Allowed, err)
		}
	}

	res, err := c.CheckRobotRateLimit(ctx, "abc123", 60, 3)
	if err != nil {
		t.Fatalf("CheckRobotRateLimit failed: %v", err)
	}
	if res.Allowed {
		t.Error("fourth request within burst window should be limited")
	}
}
