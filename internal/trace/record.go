// Package trace implements a thin trace-record tokenizer: turning
// "<space><type> <hex_addr>,<len>" lines into Records. None of the
// hit/miss/eviction logic lives here.
package trace

// Kind is a trace record's access type.
type Kind byte

const (
	KindIgnore Kind = 'I'
	KindLoad   Kind = 'L'
	KindStore  Kind = 'S'
	KindModify Kind = 'M'
)

// Record is one parsed trace line. Len is parsed but never consulted by
// the simulator: block size is fixed by the cache's own configuration,
// not by the length an individual reference happens to touch.
type Record struct {
	Kind Kind
	Addr uint64
	Len  int
}
