package cachesim

// Outcome classifies one Access call for the Tracer collaborator; it has no
// bearing on the counters themselves, which Access updates directly.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeHitDoubleRef
	OutcomeMiss
	OutcomeDirtyMiss
	// Eviction outcomes combine the miss prefix (driven by isWrite) with
	// the eviction suffix (driven by whether the victim line was dirty);
	// the two are independent, matching the original source's two
	// separate printf calls.
	OutcomeMissEviction
	OutcomeMissDirtyEviction
	OutcomeDirtyMissEviction
	OutcomeDirtyMissDirtyEviction
)

// Access performs one memory reference at addr (a read unless isWrite is
// set), mutating the appropriate line and the Cache's Stats. It never
// ages the cache itself — callers call Tick once per traced record, after
// any reads/writes that record implies.
func (c *Cache) Access(addr uint64, isWrite bool) {
	tag, setIndex, _ := c.cfg.decode(addr)
	set := c.sets[setIndex]

	// Hit path: scan for a matching tag. Only valid lines can match in
	// practice, since invalid lines carry tag=-1 and no real decoded tag
	// is ever -1 — the engine relies on that rather than checking Valid
	// explicitly, reproducing the source's behavior verbatim.
	for i := range set {
		if set[i].Tag != tag {
			continue
		}

		if isWrite && !set[i].Dirty {
			set[i].Dirty = true
			c.Stats.DirtyActiveBytes += uint64(c.cfg.BlockSize())
		}

		mruIdx := c.mruIndex(set)
		isDoubleRef := mruIdx == i

		set[i].Stamp = 0
		c.Stats.Hits++

		if c.Tracer != nil {
			if isDoubleRef {
				c.Tracer.Trace(OutcomeHitDoubleRef)
			} else {
				c.Tracer.Trace(OutcomeHit)
			}
		}

		if isDoubleRef {
			c.Stats.DoubleRefs++
		}

		return
	}

	// Cold-miss path: occupy the first invalid line.
	for i := range set {
		if set[i].Valid {
			continue
		}

		if isWrite {
			set[i].Dirty = true
			c.Stats.DirtyActiveBytes += uint64(c.cfg.BlockSize())
		}

		set[i].Valid = true
		set[i].Tag = tag
		set[i].Stamp = 0
		c.Stats.Misses++

		if c.Tracer != nil {
			if isWrite {
				c.Tracer.Trace(OutcomeDirtyMiss)
			} else {
				c.Tracer.Trace(OutcomeMiss)
			}
		}

		return
	}

	// Eviction path: replace the line with the maximum stamp (LRU),
	// ties broken by lowest index.
	c.Stats.Evictions++
	c.Stats.Misses++

	victim := c.lruIndex(set)
	wasDirty := set[victim].Dirty
	B := uint64(c.cfg.BlockSize())

	if wasDirty {
		c.Stats.DirtyEvictedBytes += B

		if !isWrite {
			set[victim].Dirty = false
			c.Stats.DirtyActiveBytes -= B
		}
		// write miss: dirty bit stays set; the departing dirty block and
		// the incoming dirty block net to zero change in active bytes.
	} else if isWrite {
		set[victim].Dirty = true
		c.Stats.DirtyActiveBytes += B
	}

	if c.Tracer != nil {
		switch {
		case isWrite && wasDirty:
			c.Tracer.Trace(OutcomeDirtyMissDirtyEviction)
		case isWrite && !wasDirty:
			c.Tracer.Trace(OutcomeDirtyMissEviction)
		case !isWrite && wasDirty:
			c.Tracer.Trace(OutcomeMissDirtyEviction)
		default:
			c.Tracer.Trace(OutcomeMissEviction)
		}
	}

	set[victim].Tag = tag
	set[victim].Stamp = 0
}

// Tick ages every valid line in the cache by one. Called once per traced
// record (I/L/S/M), after any reads/writes that record implies — an M
// record performs its read then its write, then ages once, not twice.
func (c *Cache) Tick() {
	for si := range c.sets {
		set := c.sets[si]
		for i := range set {
			if set[i].Valid {
				set[i].Stamp++
			}
		}
	}
}

// mruIndex returns the index of the set's most-recently-used valid line
// (minimum stamp among valid lines), or -1 if the set has no valid line.
func (c *Cache) mruIndex(set []Line) int {
	minStamp := int64(1<<63 - 1)
	minIdx := -1

	for i := range set {
		if set[i].Valid && set[i].Stamp < minStamp {
			minStamp = set[i].Stamp
			minIdx = i
		}
	}

	return minIdx
}

// lruIndex returns the index of the set's least-recently-used valid line
// (maximum stamp), ties broken by lowest index.
func (c *Cache) lruIndex(set []Line) int {
	maxStamp := int64(-1 << 63)
	maxIdx := -1

	for i := range set {
		if set[i].Valid && set[i].Stamp > maxStamp {
			maxStamp = set[i].Stamp
			maxIdx = i
		}
	}

	return maxIdx
}
