package health

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestTracker(threshold int, cooldown time.Duration) (*Tracker, *clock) {
	c := &clock{t: time.Date(2020, 4, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(Config{FailureThreshold: threshold, Cooldown: cooldown})
	tr.now = c.now
	return tr, c
}

func TestUnknownIsAvailable(t *testing.T) {
	tr := NewTracker(Config{})
	assert.True(t, tr.IsAvailable("unknown"))
	_, known := tr.Get("unknown")
	assert.False(t, known)
	assert.Empty(t, tr.Snapshot())
	assert.Equal(t, DefaultFailureThreshold, tr.threshold)
	assert.Equal(t, DefaultCooldown, tr.cooldown)
}

func TestFailureThreshold(t *testing.T) {
	tr, _ := newTestTracker(2, -1)

	tr.RecordFailure("A", "timeout")
	assert.True(t, tr.IsAvailable("A"))

	tr.RecordFailure("A", "status 502")
	assert.False(t, tr.IsAvailable("A"))

	rec, known := tr.Get("A")
	require.True(t, known)
	assert.Equal(t, 2, rec.ConsecutiveFailures)
	assert.Equal(t, "status 502", rec.LastFailureReason)
	assert.NotNil(t, rec.LastFailureAt)
	assert.Nil(t, rec.LastSuccessAt)

	// Success clears failures
	tr.RecordSuccess("A")
	rec, _ = tr.Get("A")
	assert.True(t, rec.Available)
	assert.Equal(t, 0, rec.ConsecutiveFailures)
	assert.NotNil(t, rec.LastSuccessAt)
}

func TestCooldown(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		tr, c := newTestTracker(1, -1)
		tr.RecordFailure("A", "down")
		c.add(time.Hour)
		assert.False(t, tr.IsAvailable("A"))
	})

	t.Run("elapsed", func(t *testing.T) {
		tr, c := newTestTracker(1, time.Minute)
		tr.RecordFailure("A", "down")
		assert.False(t, tr.IsAvailable("A"))

		c.add(time.Minute)
		assert.True(t, tr.IsAvailable("A"))

		// Failing again restarts the cooldown
		tr.RecordFailure("A", "still down")
		assert.False(t, tr.IsAvailable("A"))
		rec, _ := tr.Get("A")
		assert.Equal(t, 2, rec.ConsecutiveFailures)
	})

	t.Run("default", func(t *testing.T) {
		tr, c := newTestTracker(1, 0)
		tr.RecordFailure("A", "down")
		c.add(DefaultCooldown - time.Second)
		assert.False(t, tr.IsAvailable("A"))

		c.add(time.Second)
		assert.True(t, tr.IsAvailable("A"))
	})
}

func TestRankAvailable(t *testing.T) {
	tr, c := newTestTracker(3, 0)

	tr.RecordSuccess("B")
	c.add(time.Second)
	tr.RecordSuccess("C")
	tr.RecordFailure("D", "timeout")
	for i := 0; i < 3; i++ {
		tr.RecordFailure("E", "refused")
	}

	// C succeeded after B, A is unknown hence never succeeded, D has a failure, E is unavailable
	ranked := tr.RankAvailable([]string{"A", "B", "C", "D", "E"})
	assert.Equal(t, []string{"C", "B", "A", "D"}, ranked)

	assert.Empty(t, tr.RankAvailable([]string{"E"}))
	assert.Empty(t, tr.RankAvailable(nil))
}

func TestSnapshotAndReset(t *testing.T) {
	tr, _ := newTestTracker(1, 0)
	tr.RecordFailure("b", "down")
	tr.RecordSuccess("a")

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ProviderID)
	assert.True(t, snap[0].Available)
	assert.Equal(t, "b", snap[1].ProviderID)
	assert.False(t, snap[1].Available)

	tr.Reset()
	assert.Empty(t, tr.Snapshot())
	assert.True(t, tr.IsAvailable("b"))
}

func TestConcurrentWrites(t *testing.T) {
	tr := NewTracker(Config{FailureThreshold: 1000})
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		id := fmt.Sprintf("provider-%d", p)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tr.RecordFailure(id, "boom")
				tr.IsAvailable(id)
			}()
		}
	}
	wg.Wait()

	for _, rec := range tr.Snapshot() {
		assert.Equal(t, 50, rec.ConsecutiveFailures, rec.ProviderID)
	}
	assert.Len(t, tr.Snapshot(), 4)
}
