package vm

import "time"

// ---------------------------------------------------------------------------
// Collector: mark-and-sweep over registered resources
// ---------------------------------------------------------------------------

// Resource is anything the Collector tracks. Implementations embed GcBase
// and mark every resource they hold strong references to.
type Resource interface {
	MarkReachableResources(c *Collector)
	gcBase() *GcBase
}

// Root is a marking entry point: the VM itself and the movie stage.
type Root interface {
	MarkReachableResources(c *Collector)
}

// Finalizer is implemented by resources that release native state when
// they are swept.
type Finalizer interface {
	Finalize()
}

// GcBase carries the mark bit. Embed it to implement Resource.
type GcBase struct {
	reachable bool
}

func (g *GcBase) gcBase() *GcBase { return g }

// Reachable reports whether the last marking phase reached the resource.
func (g *GcBase) Reachable() bool { return g.reachable }

// CollectStats holds statistics from a single collection.
type CollectStats struct {
	Registered int
	Swept      int
	Duration   time.Duration
	Timestamp  time.Time
}

// DefaultGCThreshold is the number of resources that must be registered
// since the last collection before FuzzyCollect does any work.
const DefaultGCThreshold = 50

// Collector tracks every Resource created by a VM and reclaims the ones
// no Root can reach. Collection only happens when asked for, between
// actions, so marking never races with script execution.
type Collector struct {
	resources []Resource
	roots     []Root
	lastCount int

	// Threshold for FuzzyCollect; DefaultGCThreshold if zero or negative.
	Threshold int

	collections uint64
	lastStats   *CollectStats
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{Threshold: DefaultGCThreshold}
}

// Add registers a resource.
func (c *Collector) Add(r Resource) {
	c.resources = append(c.resources, r)
}

// AddRoot registers a marking entry point.
func (c *Collector) AddRoot(r Root) {
	c.roots = append(c.roots, r)
}

// RemoveRoot unregisters a marking entry point.
func (c *Collector) RemoveRoot(r Root) {
	for i, root := range c.roots {
		if root == r {
			c.roots = append(c.roots[:i], c.roots[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered resources.
func (c *Collector) Len() int { return len(c.resources) }

// Collections returns the number of collections performed.
func (c *Collector) Collections() uint64 { return c.collections }

// LastStats returns statistics from the most recent collection, or nil.
func (c *Collector) LastStats() *CollectStats { return c.lastStats }

// MarkResource marks r and, the first time it is reached, everything it
// references.
func (c *Collector) MarkResource(r Resource) {
	b := r.gcBase()
	if b.reachable {
		return
	}
	b.reachable = true
	r.MarkReachableResources(c)
}

// Mark marks an object; nil is ignored.
func (c *Collector) Mark(o *Object) {
	if o != nil {
		c.MarkResource(o)
	}
}

// MarkValue marks the object referenced by v, if any.
func (c *Collector) MarkValue(v Value) {
	c.Mark(v.Object())
}

// FuzzyCollect runs a collection only if more than Threshold resources
// were registered since the previous one. It returns nil when skipped.
func (c *Collector) FuzzyCollect() *CollectStats {
	threshold := c.Threshold
	if threshold <= 0 {
		threshold = DefaultGCThreshold
	}
	if len(c.resources)-c.lastCount < threshold {
		return nil
	}
	return c.Collect()
}

// Collect marks from every root and sweeps unreached resources, calling
// Finalize on those that implement Finalizer.
func (c *Collector) Collect() *CollectStats {
	start := time.Now()
	stats := &CollectStats{Timestamp: start}

	for _, r := range c.resources {
		r.gcBase().reachable = false
	}
	for _, root := range c.roots {
		root.MarkReachableResources(c)
	}

	all := c.resources
	c.resources = nil
	kept := make([]Resource, 0, len(all))
	for _, r := range all {
		if r.gcBase().reachable {
			kept = append(kept, r)
			continue
		}
		if f, ok := r.(Finalizer); ok {
			f.Finalize()
		}
		stats.Swept++
	}
	// finalizers may have registered new resources
	c.resources = append(kept, c.resources...)
	c.lastCount = len(c.resources)

	stats.Registered = len(c.resources)
	stats.Duration = time.Since(start)
	c.collections++
	c.lastStats = stats

	if stats.Swept > 0 {
		log.Debugf("collected %d of %d resources in %s", stats.Swept, len(all), stats.Duration)
	}
	return stats
}
