package alloc

import "fmt"

// CheckHeap walks the entire heap (prologue to epilogue) and then every
// segregated free list, verifying the invariants the allocator depends on
// for correctness. It is not called automatically outside of WithDebug
// mode; callers that want to assert heap health explicitly (tests, a
// driver's -debug flag) call it directly. It returns false and a
// human-readable reason on the first violation found, rather than
// collecting every violation, since a single corruption usually cascades
// into many spurious follow-on failures.
func (a *Allocator) CheckHeap() (bool, error) {
	if a.heapStart == nilOff {
		return true, nil
	}

	freeCountByWalk := 0
	off := a.heapStart
	epilogue := a.epilogueOffset()

	var prevOff int = nilOff

	for off < epilogue {
		size := a.getSize(off)

		if size < minBlockSize {
			return false, fmt.Errorf("block at %d: size %d below minimum %d", off, size, minBlockSize)
		}

		if size%dsize != 0 {
			return false, fmt.Errorf("block at %d: size %d not a multiple of %d", off, size, dsize)
		}

		alloc := a.getAlloc(off)
		prevAlloc := a.getPrevAlloc(off)

		if prevOff != nilOff {
			prevWasAlloc := a.getAlloc(prevOff)
			if prevAlloc != prevWasAlloc {
				return false, fmt.Errorf("block at %d: prev_alloc=%v but predecessor at %d has alloc=%v",
					off, prevAlloc, prevOff, prevWasAlloc)
			}

			if !prevWasAlloc && !alloc {
				return false, fmt.Errorf("blocks at %d and %d: two free blocks adjacent, should have coalesced", prevOff, off)
			}

			prevWasMin := a.getSize(prevOff) == minBlockSize
			if a.getPrevSseg(off) != prevWasMin {
				return false, fmt.Errorf("block at %d: prev_sseg=%v but predecessor at %d has size %d",
					off, a.getPrevSseg(off), prevOff, a.getSize(prevOff))
			}
		}

		if !alloc && size > minBlockSize {
			footerWord := a.readWord(off + int(size) - wordSize)
			if footerWord&sizeMask != size {
				return false, fmt.Errorf("block at %d: footer size %d disagrees with header size %d",
					off, footerWord&sizeMask, size)
			}

			if footerWord&allocMask != 0 {
				return false, fmt.Errorf("block at %d: footer marks allocated but header marks free", off)
			}
		}

		if !alloc {
			freeCountByWalk++
		}

		prevOff = off
		off = a.findNext(off)
	}

	if off != epilogue {
		return false, fmt.Errorf("heap walk overshot epilogue: landed at %d, epilogue at %d", off, epilogue)
	}

	if !a.getAlloc(epilogue) || a.getSize(epilogue) != 0 {
		return false, fmt.Errorf("epilogue at %d malformed: size=%d alloc=%v", epilogue, a.getSize(epilogue), a.getAlloc(epilogue))
	}

	if !a.getAlloc(a.heapStart-wordSize) || a.getSize(a.heapStart-wordSize) != 0 {
		return false, fmt.Errorf("prologue malformed")
	}

	freeCountByList := 0

	for idx, head := range a.segList {
		for b := head; b != nilOff; b = a.getFreeNext(b) {
			if b < a.heapStart || b >= epilogue {
				return false, fmt.Errorf("seg list %d: block at %d outside heap bounds", idx, b)
			}

			if a.getAlloc(b) {
				return false, fmt.Errorf("seg list %d: block at %d marked allocated", idx, b)
			}

			if segClass(a.getSize(b)) != idx {
				return false, fmt.Errorf("seg list %d: block at %d of size %d belongs in class %d",
					idx, b, a.getSize(b), segClass(a.getSize(b)))
			}

			if prev := a.getFreePrev(b); prev != nilOff && a.getFreeNext(prev) != b {
				return false, fmt.Errorf("seg list %d: block at %d's prev link doesn't point back", idx, b)
			}

			freeCountByList++
		}
	}

	for b := a.smallList; b != nilOff; b = a.getFreeNext(b) {
		if b < a.heapStart || b >= epilogue {
			return false, fmt.Errorf("small list: block at %d outside heap bounds", b)
		}

		if a.getAlloc(b) {
			return false, fmt.Errorf("small list: block at %d marked allocated", b)
		}

		if a.getSize(b) != minBlockSize {
			return false, fmt.Errorf("small list: block at %d has size %d, want %d", b, a.getSize(b), minBlockSize)
		}

		freeCountByList++
	}

	if freeCountByWalk != freeCountByList {
		return false, fmt.Errorf("free block count mismatch: %d by heap walk, %d across free lists", freeCountByWalk, freeCountByList)
	}

	return true, nil
}
