// Command csim replays a memory access trace against a simulated
// set-associative cache and reports hits, misses, evictions and dirty-byte
// accounting.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/language"

	"github.com/orizon-lang/memsim/internal/cachesim"
	"github.com/orizon-lang/memsim/internal/cliutil"
	"github.com/orizon-lang/memsim/internal/trace"
	"github.com/orizon-lang/memsim/internal/xerrors"
)

func main() {
	var (
		help      bool
		verbose   bool
		setBits   int
		lines     int
		blockBits int
		tracePath string
		watch     bool
		locale    string
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-hv] -s <s> -E <E> -b <b> -t <tracefile>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		fmt.Fprintln(os.Stderr, "  -h                 print this message and exit")
		fmt.Fprintln(os.Stderr, "  -v                 verbose: emit a trace line per access")
		fmt.Fprintln(os.Stderr, "  -w                 watch the trace file and re-run on change")
		fmt.Fprintln(os.Stderr, "  -s <s>             set index bits (S = 2^s sets)")
		fmt.Fprintln(os.Stderr, "  -E <E>             associativity (lines per set)")
		fmt.Fprintln(os.Stderr, "  -b <b>             block offset bits (B = 2^b bytes)")
		fmt.Fprintln(os.Stderr, "  -t <tracefile>     trace file to replay")
		fmt.Fprintln(os.Stderr, "  -locale <tag>      BCP 47 locale for the summary line (default en)")
		fmt.Fprintln(os.Stderr, "\nExample:")
		fmt.Fprintf(os.Stderr, "  %s -s 4 -E 1 -b 4 -t traces/yi.trace\n", os.Args[0])
	}

	flag.BoolVar(&help, "h", false, "print usage and exit")
	flag.BoolVar(&verbose, "v", false, "verbose trace output")
	flag.BoolVar(&watch, "w", false, "watch trace file for changes")
	flag.IntVar(&setBits, "s", 0, "set index bits")
	flag.IntVar(&lines, "E", 0, "associativity")
	flag.IntVar(&blockBits, "b", 0, "block offset bits")
	flag.StringVar(&tracePath, "t", "", "trace file path")
	flag.StringVar(&locale, "locale", "en", "BCP 47 locale for the summary line")
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(cliutil.ExitSuccess)
	}

	if tracePath == "" || lines <= 0 {
		flag.Usage()
		os.Exit(cliutil.ExitUsage)
	}

	cfg := cachesim.Config{SetIndexBits: setBits, Lines: lines, BlockBits: blockBits}

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	reporter := cachesim.NewDefaultReporter(tag)

	if err := runOnce(cfg, tracePath, verbose, os.Stdout, reporter); err != nil {
		cliutil.ExitWithError("%v", err)
	}

	if !watch {
		return
	}

	if err := watchAndRerun(cfg, tracePath, verbose, os.Stdout, reporter); err != nil {
		cliutil.ExitWithError("%v", err)
	}
}

func runOnce(cfg cachesim.Config, path string, verbose bool, out *os.File, reporter cachesim.Reporter) error {
	f, err := os.Open(path)
	if err != nil {
		return xerrors.TraceOpenFailed(path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)

	compatible, declared, err := trace.CheckFormatHeader(br)
	if err != nil {
		return err
	}

	if !compatible {
		return xerrors.IncompatibleTraceFormat(declared, trace.RequiredFormat)
	}

	c := cachesim.New(cfg)

	err = trace.Scan(br, func(rec trace.Record) {
		runRecord(c, rec, verbose, out)
	})
	if err != nil {
		return err
	}

	return reporter.Report(out, c.Stats)
}

func runRecord(c *cachesim.Cache, rec trace.Record, verbose bool, out *os.File) {
	if verbose {
		c.Tracer = cachesim.NewLineTracer(out, byte(rec.Kind), rec.Addr, rec.Len)
	}

	switch rec.Kind {
	case trace.KindLoad:
		c.Access(rec.Addr, false)
	case trace.KindStore:
		c.Access(rec.Addr, true)
	case trace.KindModify:
		c.Access(rec.Addr, false)
		c.Access(rec.Addr, true)
	case trace.KindIgnore:
		// instruction fetch: neither counted nor cached
	}

	c.Tick()
}

// watchAndRerun re-simulates the trace file every time fsnotify reports a
// write to it, so a user iterating on a hand-edited trace sees updated
// statistics without re-invoking the command.
func watchAndRerun(cfg cachesim.Config, path string, verbose bool, out *os.File, reporter cachesim.Reporter) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	fmt.Fprintf(os.Stderr, "watching %s for changes (ctrl-c to stop)\n", path)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := runOnce(cfg, path, verbose, out, reporter); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}
