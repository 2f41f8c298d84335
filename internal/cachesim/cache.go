// Package cachesim implements a set-associative cache simulator: address
// decoding, LRU replacement via per-line age stamps, write-allocate /
// write-back dirty tracking, and double-reference accounting. The
// simulator is a synchronous state machine over one access at a time; it
// performs no I/O of its own (tracing and reporting are collaborator
// concerns, see Tracer and Reporter).
package cachesim

// Cache is a 2-D array of S sets of E lines each, driven one access at a
// time by Access. It owns its own Stats; callers read Stats directly.
type Cache struct {
	cfg   Config
	sets  [][]Line
	Stats Stats

	// Tracer, if non-nil, receives one classified outcome per Access call.
	// Kept separate from the engine so Access itself never performs I/O.
	Tracer Tracer
}

// New allocates a Cache with S = 1<<s sets of E lines each. Every line
// starts invalid, untagged (tag=-1) and unstamped (stamp=-1).
func New(cfg Config) *Cache {
	c := &Cache{cfg: cfg}
	c.sets = make([][]Line, cfg.SetCount())

	for i := range c.sets {
		lines := make([]Line, cfg.Lines)
		for j := range lines {
			lines[j] = newLine()
		}

		c.sets[i] = lines
	}

	return c
}

// Config returns the cache's immutable configuration.
func (c *Cache) Config() Config { return c.cfg }
