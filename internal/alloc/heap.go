package alloc

import (
	"fmt"
	"unsafe"

	"github.com/orizon-lang/memsim/internal/heapmem"
	"github.com/orizon-lang/memsim/internal/xerrors"
)

// Allocator is a segregated-free-list allocator over a heapmem.Region.
// Unlike the global seg_list arrays a single-heap C allocator gets away
// with, every piece of mutable allocator state here lives on the value
// itself, so multiple independent heaps can coexist in one process.
type Allocator struct {
	region    heapmem.Region
	heapStart int
	segList   [segListSize]int
	smallList int
	chunkSize uintptr

	// Debug enables CheckHeap calls from Alloc/Free/Realloc, matching the
	// conditional dbg_ensures/dbg_requires checks the reference allocator
	// compiles in only for debug builds; Go has no such macro, so this is
	// a plain runtime flag instead.
	Debug bool
}

// Option configures an Allocator at construction time.
type Option func(*Allocator)

// WithChunkSize overrides the number of bytes requested from the Region
// each time the heap must grow; the default is the platform page size.
func WithChunkSize(n uintptr) Option {
	return func(a *Allocator) { a.chunkSize = n }
}

// WithDebug enables heap-consistency checks after every mutating call.
func WithDebug(enabled bool) Option {
	return func(a *Allocator) { a.Debug = enabled }
}

// New returns an Allocator over region. The heap itself is not reserved
// until the first Alloc call.
func New(region heapmem.Region, opts ...Option) *Allocator {
	a := &Allocator{
		region:    region,
		heapStart: nilOff,
		smallList: nilOff,
		chunkSize: heapmem.DefaultChunkSize(),
	}

	for i := range a.segList {
		a.segList[i] = nilOff
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Allocator) epilogueOffset() int {
	return len(a.region.Bytes()) - wordSize
}

// init reserves the prologue and epilogue sentinels and performs the
// first heap extension. The prologue is a zero-size allocated block
// (nothing can ever coalesce across it); the epilogue is likewise a
// zero-size allocated block, permanently the last word of the committed
// region, moving outward every time the heap grows.
func (a *Allocator) init() error {
	off, err := a.region.Extend(dsize)
	if err != nil {
		return xerrors.HeapExtensionFailed(dsize, err)
	}

	a.writeWord(off, pack(0, true))
	a.writeWord(off+wordSize, pack(0, true)|prevAllocMask)
	a.heapStart = off + wordSize

	for i := range a.segList {
		a.segList[i] = nilOff
	}

	a.smallList = nilOff

	_, err = a.extendHeap(a.chunkSize)

	return err
}

// extendHeap grows the region by at least requested bytes (rounded up to
// dsize), turns the new space into one free block that inherits the
// outgoing epilogue's prev_alloc/prev_sseg flags, writes a fresh epilogue
// past the end, coalesces the new block with its predecessor if that
// predecessor was free, and returns the resulting free block's offset.
func (a *Allocator) extendHeap(requested uintptr) (int, error) {
	epilogue := a.epilogueOffset()
	prevAlloc := a.getPrevAlloc(epilogue)
	prevSseg := a.getPrevSseg(epilogue)

	size := roundUp(uint64(requested), dsize)

	if _, err := a.region.Extend(uintptr(size)); err != nil {
		return nilOff, xerrors.HeapExtensionFailed(uintptr(size), err)
	}

	block := epilogue // the old epilogue's position becomes the new block's header

	flags := size
	if prevAlloc {
		flags |= prevAllocMask
	}

	if prevSseg {
		flags |= prevSsegMask
	}

	a.writeHeader(block, flags, false)
	a.writeFooter(block, flags, false)

	newEpilogue := a.epilogueOffset()
	a.writeWord(newEpilogue, pack(0, true))

	merged := a.coalesce(block)

	// The block coalesce just produced is free; its successor (the fresh
	// epilogue, since nothing real follows a newly extended chunk) must
	// record that directly rather than carry over whatever prev_alloc/
	// prev_sseg bits its initial zero-valued header happened to get.
	mergedSize := a.getSize(merged)
	hdr := a.readWord(newEpilogue) &^ (prevAllocMask | prevSsegMask)

	if mergedSize == minBlockSize {
		hdr |= prevSsegMask
	}

	a.writeWord(newEpilogue, hdr)

	return merged, nil
}

func (a *Allocator) ptrAt(off int) unsafe.Pointer {
	return unsafe.Pointer(&a.region.Bytes()[off])
}

func (a *Allocator) ptrToOffset(p unsafe.Pointer) int {
	base := unsafe.Pointer(&a.region.Bytes()[0])
	return int(uintptr(p) - uintptr(base))
}

// Alloc returns a pointer to a payload region of at least n bytes, or nil
// if the request cannot be satisfied (n is 0, or the region failed to
// grow). The heap is lazily initialized on the first call.
func (a *Allocator) Alloc(n uintptr) unsafe.Pointer {
	if a.heapStart == nilOff {
		if err := a.init(); err != nil {
			return nil
		}
	}

	if n == 0 {
		return nil
	}

	asize := maxU64(roundUp(uint64(n)+wordSize, dsize), minBlockSize)

	block := a.findFit(asize)
	if block == nilOff {
		extendSize := maxU64(asize, uint64(a.chunkSize))

		newBlock, err := a.extendHeap(uintptr(extendSize))
		if err != nil {
			return nil
		}

		block = newBlock
	}

	a.place(block, asize)
	a.debugCheck("alloc")

	return a.ptrAt(headerToPayload(block))
}

// Free releases a pointer previously returned by Alloc, Calloc or
// Realloc. Freeing nil is a no-op.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	block := payloadToHeader(a.ptrToOffset(p))
	size := a.getSize(block)

	flags := size
	if a.getPrevAlloc(block) {
		flags |= prevAllocMask
	}

	if a.getPrevSseg(block) {
		flags |= prevSsegMask
	}

	a.writeHeader(block, flags, false)
	a.writeFooter(block, flags, false)

	next := a.findNext(block)
	a.writeWord(next, a.readWord(next)&^prevAllocMask)

	a.coalesce(block)
	a.debugCheck("free")
}

// debugCheck runs CheckHeap when Debug is enabled and panics with the
// violation found, mirroring the reference allocator's dbg_ensures macro,
// which aborts the process on the first broken invariant in a debug
// build. Go has no compiled-out assertion mechanism, so this is simply
// skipped entirely when Debug is false.
func (a *Allocator) debugCheck(where string) {
	if !a.Debug {
		return
	}

	if ok, err := a.CheckHeap(); !ok {
		panic(xerrors.HeapCorruption(fmt.Sprintf("%s: %v", where, err)))
	}
}

// Realloc resizes the allocation at p to n bytes, copying the lesser of
// the old and new sizes' worth of payload into a fresh block. Realloc(nil,
// n) behaves as Alloc(n); Realloc(p, 0) behaves as Free(p) and returns
// nil.
func (a *Allocator) Realloc(p unsafe.Pointer, n uintptr) unsafe.Pointer {
	if n == 0 {
		a.Free(p)
		return nil
	}

	if p == nil {
		return a.Alloc(n)
	}

	newP := a.Alloc(n)
	if newP == nil {
		return nil
	}

	oldOff := a.ptrToOffset(p)
	oldBlock := payloadToHeader(oldOff)
	oldPayload := a.getSize(oldBlock) - wordSize

	copySize := oldPayload
	if uint64(n) < copySize {
		copySize = uint64(n)
	}

	newOff := a.ptrToOffset(newP)
	buf := a.region.Bytes()
	copy(buf[newOff:newOff+int(copySize)], buf[oldOff:oldOff+int(copySize)])

	a.Free(p)

	return newP
}

// Calloc allocates space for elements objects of size bytes each, zeroed,
// or nil if elements*size overflows or the allocation otherwise fails.
func (a *Allocator) Calloc(elements, size uintptr) unsafe.Pointer {
	if elements != 0 && size > ^uintptr(0)/elements {
		return nil
	}

	total := elements * size

	p := a.Alloc(total)
	if p == nil {
		return nil
	}

	off := a.ptrToOffset(p)
	buf := a.region.Bytes()[off : off+int(total)]

	for i := range buf {
		buf[i] = 0
	}

	return p
}
