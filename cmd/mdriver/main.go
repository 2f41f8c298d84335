// Command mdriver drives internal/alloc against a script of allocator
// operations, the allocator's analogue of csim's trace-driven harness.
//
// Script lines:
//
//	a <id> <size>        alloc(size), remembered under id
//	f <id>               free the block remembered under id
//	r <id> <size>        realloc(id, size), replacing id's remembered block
//	c <id> <n> <size>    calloc(n, size), remembered under id
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unsafe"

	"github.com/orizon-lang/memsim/internal/alloc"
	"github.com/orizon-lang/memsim/internal/cliutil"
	"github.com/orizon-lang/memsim/internal/heapmem"
)

func main() {
	var (
		scriptPath string
		debug      bool
		capacity   uint64
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -script <file> [-debug] [-capacity <bytes>]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Options:")
		fmt.Fprintln(os.Stderr, "  -script <file>     op-script to replay")
		fmt.Fprintln(os.Stderr, "  -debug             run the heap checker after every operation")
		fmt.Fprintln(os.Stderr, "  -capacity <bytes>  backing arena size (default 16MiB)")
	}

	flag.StringVar(&scriptPath, "script", "", "op-script path")
	flag.BoolVar(&debug, "debug", false, "enable heap checker after every op")
	flag.Uint64Var(&capacity, "capacity", 16<<20, "arena capacity in bytes")
	flag.Parse()

	if scriptPath == "" {
		flag.Usage()
		os.Exit(cliutil.ExitUsage)
	}

	f, err := os.Open(scriptPath)
	if err != nil {
		cliutil.ExitWithError("opening script: %v", err)
	}
	defer f.Close()

	a := alloc.New(heapmem.NewArena(uintptr(capacity)), alloc.WithDebug(debug))
	logger := cliutil.NewLogger(true, debug)

	live := map[string]unsafe.Pointer{}
	ops, errs := run(a, f, live, logger)

	if debug {
		if ok, err := a.CheckHeap(); !ok {
			cliutil.ExitWithError("final heap check failed: %v", err)
		}
	}

	fmt.Printf("ops:%d errors:%d live_blocks:%d\n", ops, errs, len(live))
}

func run(a *alloc.Allocator, f *os.File, live map[string]unsafe.Pointer, logger *cliutil.Logger) (ops, errs int) {
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		ops++

		if err := applyOp(a, fields, live); err != nil {
			logger.Warn("line %q: %v", line, err)
			errs++
		}
	}

	return ops, errs
}

func applyOp(a *alloc.Allocator, fields []string, live map[string]unsafe.Pointer) error {
	switch fields[0] {
	case "a":
		if len(fields) != 3 {
			return fmt.Errorf("alloc op wants 2 args, got %d", len(fields)-1)
		}

		id := fields[1]

		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad size: %w", err)
		}

		p := a.Alloc(uintptr(size))
		if p == nil {
			return fmt.Errorf("alloc(%d) failed", size)
		}

		live[id] = p

	case "f":
		if len(fields) != 2 {
			return fmt.Errorf("free op wants 1 arg, got %d", len(fields)-1)
		}

		id := fields[1]

		p, ok := live[id]
		if !ok {
			return fmt.Errorf("free of unknown id %q", id)
		}

		a.Free(p)
		delete(live, id)

	case "r":
		if len(fields) != 3 {
			return fmt.Errorf("realloc op wants 2 args, got %d", len(fields)-1)
		}

		id := fields[1]

		size, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad size: %w", err)
		}

		p := live[id] // nil is fine: Realloc(nil, n) behaves as Alloc(n)

		newP := a.Realloc(p, uintptr(size))
		if newP == nil && size != 0 {
			return fmt.Errorf("realloc(%s, %d) failed", id, size)
		}

		if size == 0 {
			delete(live, id)
		} else {
			live[id] = newP
		}

	case "c":
		if len(fields) != 4 {
			return fmt.Errorf("calloc op wants 3 args, got %d", len(fields)-1)
		}

		id := fields[1]

		n, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad element count: %w", err)
		}

		size, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return fmt.Errorf("bad element size: %w", err)
		}

		p := a.Calloc(uintptr(n), uintptr(size))
		if p == nil {
			return fmt.Errorf("calloc(%d, %d) failed", n, size)
		}

		live[id] = p

	default:
		return fmt.Errorf("unknown op %q", fields[0])
	}

	return nil
}
