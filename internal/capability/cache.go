package capability

import (
	"context"
	"sync"
	"sync/atomic"
)

// Snapshot pairs detected Specs with the Optimal settings derived from them.
type Snapshot struct {
	Specs   Specs   `json:"system_specs"`
	Optimal Optimal `json:"optimal_settings"`
}

// Prober produces Specs.
type Prober interface {
	Detect(ctx context.Context) Specs
}

// Cache memoizes one Snapshot for the process lifetime. Refresh replaces it
// wholesale; readers see either the old or the new snapshot, never a mix.
type Cache struct {
	prober Prober
	mu     sync.Mutex // serializes detection
	cur    atomic.Pointer[Snapshot]
}

// NewCache returns an empty cache backed by p.
func NewCache(p Prober) *Cache {
	return &Cache{prober: p}
}

// NewStaticCache returns a cache pre-populated with snap. Refresh re-derives
// Optimal from the same Specs.
func NewStaticCache(specs Specs) *Cache {
	c := &Cache{prober: staticProber(specs)}
	c.publish(specs)
	return c
}

// Get returns the cached snapshot, detecting on first use.
func (c *Cache) Get(ctx context.Context) Snapshot {
	if s := c.cur.Load(); s != nil {
		return *s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.cur.Load(); s != nil {
		return *s
	}
	return c.publish(c.prober.Detect(ctx))
}

// Refresh runs detection again and publishes the new snapshot.
func (c *Cache) Refresh(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publish(c.prober.Detect(ctx))
}

// Peek returns the snapshot without triggering detection.
func (c *Cache) Peek() (Snapshot, bool) {
	if s := c.cur.Load(); s != nil {
		return *s, true
	}
	return Snapshot{}, false
}

func (c *Cache) publish(specs Specs) Snapshot {
	snap := &Snapshot{Specs: specs, Optimal: Optimize(specs)}
	c.cur.Store(snap)
	return *snap
}

type staticProber Specs

func (p staticProber) Detect(context.Context) Specs { return Specs(p) }
