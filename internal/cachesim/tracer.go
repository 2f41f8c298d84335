package cachesim

import (
	"fmt"
	"io"
)

// Tracer receives one notification per Access call when verbose mode is
// enabled. Access never writes output itself — keeping I/O out of the
// engine is what lets the hit/miss/eviction logic be tested without a
// writer at hand.
type Tracer interface {
	Trace(outcome Outcome)
}

// outcomeText renders the trace-line suffix for each outcome.
func outcomeText(o Outcome) string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeHitDoubleRef:
		return "hit-double_ref"
	case OutcomeMiss:
		return "miss"
	case OutcomeDirtyMiss:
		return "dirty-miss"
	case OutcomeMissEviction:
		return "miss eviction"
	case OutcomeMissDirtyEviction:
		return "miss dirty_eviction"
	case OutcomeDirtyMissEviction:
		return "dirty-miss eviction"
	case OutcomeDirtyMissDirtyEviction:
		return "dirty-miss dirty_eviction"
	default:
		return "?"
	}
}

// LineTracer writes one "<type> <hex> <len> <outcome>" line per access to
// w, matching the verbose trace format a reference cache simulator prints.
type LineTracer struct {
	w    io.Writer
	kind byte
	addr uint64
	len  int
}

// NewLineTracer returns a Tracer bound to a single traced record; the
// caller constructs one per record since the prefix varies per record.
func NewLineTracer(w io.Writer, kind byte, addr uint64, length int) *LineTracer {
	return &LineTracer{w: w, kind: kind, addr: addr, len: length}
}

func (t *LineTracer) Trace(outcome Outcome) {
	fmt.Fprintf(t.w, "%c %x %d %s\n", t.kind, t.addr, t.len, outcomeText(outcome))
}
