package alloc

// findFit searches for a free block of at least asize bytes. Requests for
// exactly the minimum block size check the dedicated small list first,
// since nothing in the segregated lists can be smaller. Otherwise the
// search starts at asize's own size class and walks upward through
// larger classes, returning immediately on an exact match and otherwise
// tracking the candidate with the smallest excess (bytes wasted over
// asize) seen in the first nthFit candidates — a bounded best-fit rather
// than an unbounded one, trading a slightly worse fit for a search that
// can't degrade into a full free-list scan on a heap with many small
// blocks.
func (a *Allocator) findFit(asize uint64) int {
	if asize == minBlockSize {
		for b := a.smallList; b != nilOff; b = a.getFreeNext(b) {
			if a.getSize(b) >= asize {
				return b
			}
		}
	}

	start := segClass(asize)
	if asize == minBlockSize {
		start = 0
	}

	best := nilOff
	var bestDiff uint64
	examined := 0

	for idx := start; idx < segListSize; idx++ {
		for b := a.segList[idx]; b != nilOff; b = a.getFreeNext(b) {
			bs := a.getSize(b)

			if bs == asize {
				return b
			}

			if bs < asize {
				continue
			}

			examined++
			diff := bs - asize

			if best == nilOff || diff < bestDiff {
				best = b
				bestDiff = diff
			}

			if examined == nthFit {
				return best
			}
		}
	}

	return best
}
