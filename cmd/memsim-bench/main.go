// Command memsim-bench runs many cache-simulator traces and/or allocator
// op-scripts concurrently, each against its own private Cache or Allocator
// instance, and prints an aggregate JSON report. Concurrency is across
// independent instances only — each Cache and Allocator remains the
// single-threaded, synchronous value type the simulator and allocator are
// specified as.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/memsim/internal/alloc"
	"github.com/orizon-lang/memsim/internal/cachesim"
	"github.com/orizon-lang/memsim/internal/cliutil"
	"github.com/orizon-lang/memsim/internal/heapmem"
	"github.com/orizon-lang/memsim/internal/trace"
)

type traceResult struct {
	Path  string         `json:"path"`
	Stats cachesim.Stats `json:"stats"`
	Error string         `json:"error,omitempty"`
}

type scriptResult struct {
	Path      string `json:"path"`
	Ops       int    `json:"ops"`
	LiveAtEnd int    `json:"live_at_end"`
	Error     string `json:"error,omitempty"`
}

type report struct {
	Traces  []traceResult  `json:"traces,omitempty"`
	Scripts []scriptResult `json:"scripts,omitempty"`
}

func main() {
	var (
		setBits, lines, blockBits int
		traces, scripts           string
		concurrency               int
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -s <s> -E <E> -b <b> -traces <a,b,c> -scripts <x,y>\n", os.Args[0])
	}

	flag.IntVar(&setBits, "s", 4, "set index bits (for -traces)")
	flag.IntVar(&lines, "E", 1, "associativity (for -traces)")
	flag.IntVar(&blockBits, "b", 4, "block offset bits (for -traces)")
	flag.StringVar(&traces, "traces", "", "comma-separated trace file paths")
	flag.StringVar(&scripts, "scripts", "", "comma-separated allocator op-script paths")
	flag.IntVar(&concurrency, "j", 8, "maximum concurrent instances")
	flag.Parse()

	tracePaths := splitNonEmpty(traces)
	scriptPaths := splitNonEmpty(scripts)

	if len(tracePaths) == 0 && len(scriptPaths) == 0 {
		flag.Usage()
		os.Exit(cliutil.ExitUsage)
	}

	rep := report{
		Traces:  make([]traceResult, len(tracePaths)),
		Scripts: make([]scriptResult, len(scriptPaths)),
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	cfg := cachesim.Config{SetIndexBits: setBits, Lines: lines, BlockBits: blockBits}

	for i, p := range tracePaths {
		i, p := i, p
		g.Go(func() error {
			rep.Traces[i] = runTrace(cfg, p)
			return nil
		})
	}

	for i, p := range scriptPaths {
		i, p := i, p
		g.Go(func() error {
			rep.Scripts[i] = runScript(p)
			return nil
		})
	}

	_ = g.Wait() // per-instance errors are captured in the report, not propagated

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(rep); err != nil {
		cliutil.ExitWithError("%v", err)
	}
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}

	var out []string

	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

func runTrace(cfg cachesim.Config, path string) traceResult {
	result := traceResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer f.Close()

	c := cachesim.New(cfg)

	err = trace.Scan(bufio.NewReader(f), func(rec trace.Record) {
		switch rec.Kind {
		case trace.KindLoad:
			c.Access(rec.Addr, false)
		case trace.KindStore:
			c.Access(rec.Addr, true)
		case trace.KindModify:
			c.Access(rec.Addr, false)
			c.Access(rec.Addr, true)
		}

		c.Tick()
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Stats = c.Stats

	return result
}

func runScript(path string) scriptResult {
	result := scriptResult{Path: path}

	f, err := os.Open(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer f.Close()

	a := alloc.New(heapmem.NewArena(16 << 20))
	live := map[string]unsafe.Pointer{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		result.Ops++

		if err := applyScriptOp(a, fields, live); err != nil && result.Error == "" {
			result.Error = err.Error()
		}
	}

	result.LiveAtEnd = len(live)

	return result
}

func applyScriptOp(a *alloc.Allocator, fields []string, live map[string]unsafe.Pointer) error {
	switch fields[0] {
	case "a":
		if len(fields) != 3 {
			return fmt.Errorf("alloc op wants 2 args")
		}

		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		p := a.Alloc(uintptr(size))
		if p == nil {
			return fmt.Errorf("alloc(%d) failed", size)
		}

		live[fields[1]] = p

	case "f":
		if len(fields) != 2 {
			return fmt.Errorf("free op wants 1 arg")
		}

		if p, ok := live[fields[1]]; ok {
			a.Free(p)
			delete(live, fields[1])
		}

	case "r":
		if len(fields) != 3 {
			return fmt.Errorf("realloc op wants 2 args")
		}

		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		newP := a.Realloc(live[fields[1]], uintptr(size))
		if size == 0 {
			delete(live, fields[1])
		} else if newP != nil {
			live[fields[1]] = newP
		}

	case "c":
		if len(fields) != 4 {
			return fmt.Errorf("calloc op wants 3 args")
		}

		n, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return err
		}

		size, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return err
		}

		p := a.Calloc(uintptr(n), uintptr(size))
		if p == nil {
			return fmt.Errorf("calloc(%d, %d) failed", n, size)
		}

		live[fields[1]] = p
	}

	return nil
}
