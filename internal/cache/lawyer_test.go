package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
)

func TestNopLawyerCache(t *testing.T) {
	var c LawyerCache = NopLawyerCache{}
	ctx := context.Background()

	c.Set(ctx, &model.LawyerProfile{ID: 1, Name: "Asha"})
	if _, ok := c.Get(ctx, 1); ok {
		t.Error("nop cache returned a hit")
	}
	c.Invalidate(ctx, 1)
}

func TestKey(t *testing.T) {
	if got := key(42); got != "justicehub:lawyer:42" {
		t.Errorf("key(42) = %q", got)
	}
}

func TestRedisLawyerCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	client, err := NewClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisLawyerCache(client, time.Second, logger.NewNop())
	id := uint(time.Now().UnixNano() % 1_000_000_000)
	p := &model.LawyerProfile{ID: id, Name: "Asha Rao", Expertise: []string{"tenancy"}}

	if _, ok := c.Get(ctx, id); ok {
		t.Fatal("unexpected hit before set")
	}

	c.Set(ctx, p)
	got, ok := c.Get(ctx, id)
	if !ok {
		t.Fatal("miss after set")
	}
	if got.Name != p.Name || len(got.Expertise) != 1 {
		t.Errorf("got %+v", got)
	}

	c.Invalidate(ctx, id)
	if _, ok := c.Get(ctx, id); ok {
		t.Error("hit after invalidate")
	}

	c.Set(ctx, p)
	time.Sleep(1500 * time.Millisecond)
	if _, ok := c.Get(ctx, id); ok {
		t.Error("hit after ttl expiry")
	}
}
