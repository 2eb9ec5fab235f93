package ttlmap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock позволяет двигать время без sleep.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}

func newWithClock[K comparable, V any]() (*Map[K, V], *fakeClock) {
	clock := &fakeClock{cur: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New[K, V]()
	m.now = clock.now
	return m, clock
}

func TestMap_SetGet(t *testing.T) {
	m, clock := newWithClock[string, int]()

	m.Set("a", 1, time.Minute)
	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	clock.advance(2 * time.Minute)
	_, ok = m.Get("a")
	assert.False(t, ok, "просроченная запись не должна читаться")
	assert.Equal(t, 1, m.Len(), "до Sweep запись физически остается")
}

func TestMap_Update(t *testing.T) {
	m, clock := newWithClock[string, []string]()
	m.Set("k", nil, time.Minute)

	ok := m.Update("k", func(v *[]string) { *v = append(*v, "x") })
	require.True(t, ok)
	v, _ := m.Get("k")
	assert.Equal(t, []string{"x"}, v)

	assert.False(t, m.Update("missing", func(*[]string) {}))

	clock.advance(time.Hour)
	assert.False(t, m.Update("k", func(*[]string) {}), "просроченная запись не обновляется")
}

func TestMap_SweepAndDelete(t *testing.T) {
	m, clock := newWithClock[int, string]()
	m.Set(1, "short", time.Second)
	m.Set(2, "long", time.Hour)
	m.Set(3, "gone", time.Hour)

	m.Delete(3)
	clock.advance(time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get(2)
	assert.True(t, ok)
}

func TestMap_SweepEvery(t *testing.T) {
	m := New[string, int]()
	m.Set("expired", 1, -time.Second)
	m.Set("alive", 2, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	total := 0
	m.SweepEvery(ctx, 20*time.Millisecond, func(n int) {
		mu.Lock()
		total += n
		mu.Unlock()
	})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == 1 && m.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
}
