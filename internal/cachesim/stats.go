package cachesim

// Stats accumulates the six summary counters a finished simulation run
// reports. It is a pure accumulator — formatting it for human consumption
// is the Reporter collaborator's job, not this type's.
type Stats struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	DirtyEvictedBytes uint64
	DirtyActiveBytes  uint64
	DoubleRefs        uint64
}
