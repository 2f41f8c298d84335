package alloc

import "encoding/binary"

// Blocks are addressed as byte offsets into the Allocator's Region rather
// than pointers. Every block opens with a one-word header: the low three
// bits hold cur_alloc, prev_alloc and prev_sseg; the remaining bits, once
// masked off, hold the block's total size (header + payload + padding,
// always a multiple of dsize). Allocated blocks and minimum-size (16-byte)
// free blocks carry no footer; every other free block mirrors its header
// in a footer word at its last 8 bytes, so a predecessor can be measured
// from either end.

func (a *Allocator) readWord(off int) uint64 {
	buf := a.region.Bytes()
	return binary.LittleEndian.Uint64(buf[off : off+wordSize])
}

func (a *Allocator) writeWord(off int, v uint64) {
	buf := a.region.Bytes()
	binary.LittleEndian.PutUint64(buf[off:off+wordSize], v)
}

func (a *Allocator) getSize(off int) uint64    { return a.readWord(off) & sizeMask }
func (a *Allocator) getAlloc(off int) bool     { return a.readWord(off)&allocMask != 0 }
func (a *Allocator) getPrevAlloc(off int) bool { return a.readWord(off)&prevAllocMask != 0 }
func (a *Allocator) getPrevSseg(off int) bool  { return a.readWord(off)&prevSsegMask != 0 }

// writeHeader stores size (which may already carry prev_alloc/prev_sseg
// bits ORed in by the caller) and the cur_alloc bit at off. When the
// resulting size is the minimum block size, the block right after it (at
// a fixed dsize offset, since a min-size block is exactly dsize long) has
// its prev_sseg bit set — it has no footer to measure this block from, so
// it must be told directly. When allocBit is set, the block immediately
// following (by the size just written) has its prev_alloc bit set.
func (a *Allocator) writeHeader(off int, size uint64, allocBit bool) {
	if size&sizeMask <= minBlockSize {
		next := off + dsize
		a.writeWord(next, a.readWord(next)|prevSsegMask)
	}

	a.writeWord(off, pack(size, allocBit))

	if allocBit {
		next := a.findNext(off)
		a.writeWord(next, a.readWord(next)|prevAllocMask)
	}
}

// writeFooter mirrors size/allocBit into the block's footer word. Blocks
// at or below the minimum size have no footer and the call is a no-op.
func (a *Allocator) writeFooter(off int, size uint64, allocBit bool) {
	trueSize := size & sizeMask
	if trueSize <= minBlockSize {
		return
	}

	footer := off + int(trueSize) - wordSize
	a.writeWord(footer, pack(size, allocBit))
}

func (a *Allocator) findNext(off int) int {
	return off + int(a.getSize(off))
}

// findPrev locates the predecessor block. If prev_sseg is set, the
// predecessor is known to be exactly dsize away (it has no footer);
// otherwise its footer, immediately before off, gives its size.
func (a *Allocator) findPrev(off int) int {
	if a.getPrevSseg(off) {
		return off - dsize
	}

	footer := a.readWord(off - wordSize)
	size := footer & sizeMask

	return off - int(size)
}

func payloadToHeader(payloadOff int) int { return payloadOff - wordSize }
func headerToPayload(headerOff int) int  { return headerOff + wordSize }
