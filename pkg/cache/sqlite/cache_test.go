package sqlite

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/lookup-erp/lookup/pkg/models"
	"github.com/lookup-erp/lookup/pkg/search"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *testClock) {
	t.Helper()
	clk := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath, ttl, WithClock(clk.Now))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, clk
}

func TestPutAndGet(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	if err := c.Put("clients|jo", []byte(`[{"id":1}]`)); err != nil {
		t.Fatal(err)
	}

	data, ok := c.Get("clients|jo")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(data) != `[{"id":1}]` {
		t.Errorf("unexpected payload: %s", data)
	}

	// Miss for a different key
	if _, ok := c.Get("products|jo"); ok {
		t.Error("expected cache miss for different key")
	}
}

func TestTTLExpiration(t *testing.T) {
	c, clk := newTestCache(t, 30*time.Second)

	if err := c.Put("k", []byte("data")); err != nil {
		t.Fatal(err)
	}

	clk.Advance(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit exactly at the TTL")
	}

	clk.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected cache miss after TTL expiration")
	}
}

func TestPutSweepsExpired(t *testing.T) {
	c, clk := newTestCache(t, time.Second)

	_ = c.Put("old", []byte("data"))
	clk.Advance(2 * time.Second)
	_ = c.Put("new", []byte("data"))

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry after sweep, got %d", stats.Entries)
	}
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	_ = c.Put("h1", []byte("data"))
	c.Get("h1") // hit
	c.Get("h2") // miss

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("expected 1 entry, got %d", stats.Entries)
	}
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	_ = c.Put("h1", []byte("data"))
	_ = c.Put("h2", []byte("data"))

	if err := c.Clear(false); err != nil {
		t.Fatal(err)
	}

	stats, _ := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.Entries)
	}
}

func TestClearExpiredOnly(t *testing.T) {
	c, clk := newTestCache(t, time.Minute)

	_ = c.Put("old", []byte("data"))
	clk.Advance(45 * time.Second)
	_ = c.Put("young", []byte("data"))
	clk.Advance(30 * time.Second)

	if err := c.Clear(true); err != nil {
		t.Fatal(err)
	}
	stats, _ := c.Stats()
	if stats.Entries != 1 {
		t.Errorf("expected only the young entry to survive, got %d", stats.Entries)
	}
}

func TestTypedRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	var typed search.Cache[models.Client] = NewTyped[models.Client](c, zerolog.Nop())

	want := []models.Client{{ID: 1, Name: "John"}, {ID: 2, Name: "Joan", TaxID: "XAXX010101000"}}
	typed.Set("clients|jo", want)

	got, ok := typed.Get("clients|jo")
	if !ok {
		t.Fatal("expected typed hit")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	typed.Clear()
	if _, ok := typed.Get("clients|jo"); ok {
		t.Error("expected miss after clear")
	}
}

func TestTypedUndecodableIsMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	_ = c.Put("clients|jo", []byte("not json"))

	typed := NewTyped[models.Client](c, zerolog.Nop())
	if _, ok := typed.Get("clients|jo"); ok {
		t.Error("undecodable payload should be a miss")
	}
}
