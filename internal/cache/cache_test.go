package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Now()
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup", c.Size())
	}
}

func TestLRUCacheDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Purge", c.Size())
	}
}

func TestGetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	var calls int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad("k", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-release
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("GetOrLoad() = %v, %v", v, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n < 1 || n > 8 {
		t.Fatalf("load called %d times", n)
	}
	v, hit, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("should not load") })
	if err != nil || !hit || v != 42 {
		t.Errorf("cached GetOrLoad() = %v, %v, %v", v, hit, err)
	}
}

func TestGetOrLoadErrorsAreNotCached(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	boom := errors.New("boom")
	if _, _, err := c.GetOrLoad("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if c.Size() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestGetOrLoadDropsResultAfterPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	v, hit, err := c.GetOrLoad("k", func() (int, error) {
		c.Purge()
		return 1, nil
	})
	if err != nil || hit || v != 1 {
		t.Fatalf("GetOrLoad() = %v, %v, %v", v, hit, err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("value loaded before a purge should not be cached")
	}
}

type countingCleaner struct{ n int32 }

func (c *countingCleaner) CleanExpired() int {
	atomic.AddInt32(&c.n, 1)
	return 1
}

func TestManager(t *testing.T) {
	m := NewManager()
	cl := &countingCleaner{}
	m.Register(cl)

	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow() = %d, want 1", n)
	}

	m.StartCleanup(5 * time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&cl.n) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	m.Stop()
	if atomic.LoadInt32(&cl.n) < 3 {
		t.Error("periodic cleanup did not run")
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager().Stop()
}
