package cachesim

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Reporter formats a finished Stats snapshot for human consumption. Stats
// accounting is the simulator's hard core; turning it into printable
// output is a collaborator concern, so this is a default implementation
// rather than the only possible one.
type Reporter interface {
	Report(w io.Writer, s Stats) error
}

// DefaultReporter prints the six counters with thousands separators, using
// golang.org/x/text/message the way a locale-aware CLI summary would.
type DefaultReporter struct {
	Printer *message.Printer
}

// NewDefaultReporter builds a DefaultReporter for the given language tag;
// an empty tag falls back to language.English.
func NewDefaultReporter(tag language.Tag) *DefaultReporter {
	if tag == (language.Tag{}) {
		tag = language.English
	}

	return &DefaultReporter{Printer: message.NewPrinter(tag)}
}

func (r *DefaultReporter) Report(w io.Writer, s Stats) error {
	_, err := r.Printer.Fprintf(w,
		"hits:%d misses:%d evictions:%d dirty_bytes_in_cache:%d dirty_bytes_evicted:%d double_refs:%d\n",
		s.Hits, s.Misses, s.Evictions, s.DirtyActiveBytes, s.DirtyEvictedBytes, s.DoubleRefs)

	return err
}
