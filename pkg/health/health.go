package health

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultFailureThreshold is the number of consecutive failures after which a provider is unavailable
	DefaultFailureThreshold = 3
	// DefaultCooldown is the time after which an unavailable provider is tried again
	DefaultCooldown = 30 * time.Second
)

// Config configures a Tracker
type Config struct {
	FailureThreshold int           `json:"failure_threshold" env:"ARGOS_HEALTH_FAILURE_THRESHOLD"`
	Cooldown         time.Duration `json:"cooldown" env:"ARGOS_HEALTH_COOLDOWN"` // 0 means DefaultCooldown, a negative value keeps unavailable providers so until a success
}

// Record is the health state of one provider.
type Record struct {
	ProviderID          string     `json:"providerId"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastFailureReason   string     `json:"lastFailureReason,omitempty"`
	Available           bool       `json:"available"`
}

// Tracker keeps, per provider, whether it is currently usable.
// It never calls providers itself, outcomes are reported by the caller.
type Tracker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu      sync.RWMutex // guards entries, not the records
	entries map[string]*entry
}

type entry struct {
	mu  sync.Mutex   // one writer at a time
	rec atomic.Value // Record, replaced as a whole
}

func (e *entry) load() Record {
	return e.rec.Load().(Record)
}

// NewTracker returns a new Tracker
func NewTracker(cfg Config) *Tracker {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = DefaultCooldown
	}
	return &Tracker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		entries:   make(map[string]*entry),
	}
}

// RecordSuccess clears the provider failures and makes it available.
func (t *Tracker) RecordSuccess(providerID string) {
	e := t.entry(providerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := t.now()
	rec := e.load()
	rec.ConsecutiveFailures = 0
	rec.Available = true
	rec.LastSuccessAt = &now
	e.rec.Store(rec)
}

// RecordFailure counts a failure for the provider.
// The provider becomes unavailable once its consecutive failures reach the threshold.
func (t *Tracker) RecordFailure(providerID string, reason string) {
	e := t.entry(providerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := t.now()
	rec := e.load()
	rec.ConsecutiveFailures++
	rec.LastFailureAt = &now
	rec.LastFailureReason = reason
	if rec.ConsecutiveFailures >= t.threshold {
		rec.Available = false
	}
	e.rec.Store(rec)
}

// IsAvailable returns true if the provider can be used. Unknown providers are available.
func (t *Tracker) IsAvailable(providerID string) bool {
	rec, known := t.Get(providerID)
	if !known {
		return true
	}
	return rec.Available
}

// Get returns the provider record and whether the provider is known.
// Available reflects the cooldown: a provider whose cooldown elapsed is offered again.
func (t *Tracker) Get(providerID string) (Record, bool) {
	t.mu.RLock()
	e, exists := t.entries[providerID]
	t.mu.RUnlock()
	if !exists {
		return Record{ProviderID: providerID, Available: true}, false
	}
	return t.effective(e.load()), true
}

// RankAvailable returns the available providers among the given ones,
// ordered by fewest consecutive failures then most recent success.
// Ties keep the given order.
func (t *Tracker) RankAvailable(providerIDs []string) []string {
	type candidate struct {
		id  string
		rec Record
	}
	var candidates []candidate
	for _, id := range providerIDs {
		rec, _ := t.Get(id)
		if rec.Available {
			candidates = append(candidates, candidate{id, rec})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].rec, candidates[j].rec
		if a.ConsecutiveFailures != b.ConsecutiveFailures {
			return a.ConsecutiveFailures < b.ConsecutiveFailures
		}
		return after(a.LastSuccessAt, b.LastSuccessAt)
	})

	res := make([]string, len(candidates))
	for i, c := range candidates {
		res[i] = c.id
	}
	return res
}

// Snapshot returns every known record sorted by provider ID
func (t *Tracker) Snapshot() []Record {
	t.mu.RLock()
	res := make([]Record, 0, len(t.entries))
	for _, e := range t.entries {
		res = append(res, t.effective(e.load()))
	}
	t.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool {
		return res[i].ProviderID < res[j].ProviderID
	})
	return res
}

// Reset forgets every record
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[string]*entry)
}

// entry returns the entry for the given provider, creating it if needed
func (t *Tracker) entry(providerID string) *entry {
	t.mu.RLock()
	e, exists := t.entries[providerID]
	t.mu.RUnlock()
	if exists {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, exists := t.entries[providerID]; exists {
		return e
	}
	e = &entry{}
	e.rec.Store(Record{ProviderID: providerID, Available: true})
	t.entries[providerID] = e
	return e
}

func (t *Tracker) effective(rec Record) Record {
	if !rec.Available && t.cooldown > 0 && rec.LastFailureAt != nil {
		if t.now().Sub(*rec.LastFailureAt) >= t.cooldown {
			rec.Available = true
		}
	}
	return rec
}

// after returns true if a is strictly more recent than b, nil being the oldest
func after(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
