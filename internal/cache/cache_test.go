package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k1", "v")
	c.Set("k2", "v")
	now = now.Add(2 * time.Minute)
	c.Set("k3", "v")

	if _, ok := c.Get("k1"); ok {
		t.Fatal("k1 should be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLoaderCollapsesConcurrentMisses(t *testing.T) {
	l := NewLoader[int](NewLRUCache[int](10, time.Minute))
	var calls atomic.Int32
	release := make(chan struct{})

	load := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := l.GetOrLoad(context.Background(), "org:1", load); err != nil || v != 7 {
				t.Errorf("GetOrLoad = %d, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if c := calls.Load(); c != 1 {
		t.Fatalf("load called %d times", c)
	}
	if v, err := l.GetOrLoad(context.Background(), "org:1", load); err != nil || v != 7 {
		t.Fatalf("cached GetOrLoad = %d, %v", v, err)
	}
	if c := calls.Load(); c != 1 {
		t.Fatalf("cached read reloaded: %d", c)
	}
}

func TestLoaderInvalidateAndErrors(t *testing.T) {
	l := NewLoader[string](NewLRUCache[string](10, time.Minute))
	ctx := context.Background()

	boom := errors.New("boom")
	if _, err := l.GetOrLoad(ctx, "k", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}

	v, _ := l.GetOrLoad(ctx, "k", func(context.Context) (string, error) { return "first", nil })
	if v != "first" {
		t.Fatalf("v = %q", v)
	}
	l.Invalidate("k")
	v, _ = l.GetOrLoad(ctx, "k", func(context.Context) (string, error) { return "second", nil })
	if v != "second" {
		t.Fatalf("after invalidate v = %q", v)
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Nanosecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
	m.Stop()
}
