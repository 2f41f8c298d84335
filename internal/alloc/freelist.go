package alloc

// Free blocks store their list links in their own body rather than in any
// side structure. A free block larger than the minimum size has a next
// offset at off+wordSize and a prev offset at off+dsize, making its list
// doubly linked for O(1) removal from the middle. A free block exactly at
// the minimum size has only room for a next offset (its body is a single
// word), so the dedicated small list is singly linked and removal from
// the middle costs a linear scan — the same tradeoff a single free-list
// slot for the smallest class makes.
//
// Insertion is always LIFO (new block becomes the list head): recently
// freed memory is typically still hot, and LIFO insertion is O(1) whether
// or not the list is already populated.

func (a *Allocator) getFreeNext(off int) int { return int(int64(a.readWord(off + wordSize))) }
func (a *Allocator) setFreeNext(off, v int)  { a.writeWord(off+wordSize, uint64(int64(v))) }
func (a *Allocator) getFreePrev(off int) int { return int(int64(a.readWord(off + dsize))) }
func (a *Allocator) setFreePrev(off, v int)  { a.writeWord(off+dsize, uint64(int64(v))) }

// segClass maps a size greater than the minimum block size to one of the
// segregated list indices. The 2048..4098 boundary (rather than 4096) is
// carried over verbatim from the reference allocator this design is
// grounded on; it shifts exactly two sizes (4097 and 4098 bytes) into the
// lower class and is preserved rather than silently corrected, since it
// affects only fit-search locality, never correctness.
func segClass(size uint64) int {
	switch {
	case size <= 32:
		return 0
	case size <= 64:
		return 1
	case size <= 128:
		return 2
	case size <= 256:
		return 3
	case size <= 512:
		return 4
	case size <= 1024:
		return 5
	case size <= 2048:
		return 6
	case size <= 4098:
		return 7
	case size <= 8192:
		return 8
	case size <= 16384:
		return 9
	default:
		return 10
	}
}

func (a *Allocator) insertFreeblock(off int) {
	size := a.getSize(off)

	if size <= minBlockSize {
		a.setFreeNext(off, a.smallList)
		a.smallList = off

		return
	}

	idx := segClass(size)
	head := a.segList[idx]

	a.setFreePrev(off, nilOff)
	a.setFreeNext(off, head)

	if head != nilOff {
		a.setFreePrev(head, off)
	}

	a.segList[idx] = off
}

func (a *Allocator) removeFreeblock(off int) {
	size := a.getSize(off)

	if size <= minBlockSize {
		if a.smallList == off {
			a.smallList = a.getFreeNext(off)
			return
		}

		for p := a.smallList; p != nilOff; p = a.getFreeNext(p) {
			if next := a.getFreeNext(p); next == off {
				a.setFreeNext(p, a.getFreeNext(off))
				return
			}
		}

		return
	}

	idx := segClass(size)
	prev := a.getFreePrev(off)
	next := a.getFreeNext(off)

	switch {
	case prev == nilOff && next == nilOff:
		a.segList[idx] = nilOff
	case prev == nilOff:
		a.setFreePrev(next, nilOff)
		a.segList[idx] = next
	case next == nilOff:
		a.setFreeNext(prev, nilOff)
	default:
		a.setFreeNext(prev, next)
		a.setFreePrev(next, prev)
	}
}
