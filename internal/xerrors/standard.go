// Package xerrors provides standardized error messaging for the cache
// simulator and allocator, following the error taxonomy each subsystem's
// design calls for (trace I/O, size validation, corruption, overflow).
package xerrors

import (
	"fmt"
	"runtime"
)

// Category tags an error with the subsystem concern that produced it.
type Category string

const (
	CategoryIO         Category = "IO"
	CategoryUsage      Category = "USAGE"
	CategoryOverflow   Category = "OVERFLOW"
	CategoryCorruption Category = "CORRUPTION"
	CategoryValidation Category = "VALIDATION"
)

// StandardError provides a consistent error format across both subsystems.
type StandardError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// New creates a new standardized error, tagging it with the caller's name.
func New(category Category, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// TraceOpenFailed reports that the simulator could not open its trace file.
func TraceOpenFailed(path string, cause error) *StandardError {
	return New(CategoryIO, "TRACE_OPEN_FAILED",
		fmt.Sprintf("failed to open trace file %q: %v", path, cause),
		map[string]interface{}{"path": path, "cause": cause})
}

// IncompatibleTraceFormat reports a trace file declaring an unsupported
// format version via its leading "# format" directive.
func IncompatibleTraceFormat(declared, required string) *StandardError {
	return New(CategoryUsage, "INCOMPATIBLE_TRACE_FORMAT",
		fmt.Sprintf("trace declares format %s, need %s", declared, required),
		map[string]interface{}{"declared": declared, "required": required})
}

// CallocOverflow reports that elements*size overflowed in Calloc.
func CallocOverflow(elements, size uintptr) *StandardError {
	return New(CategoryOverflow, "CALLOC_OVERFLOW",
		fmt.Sprintf("calloc(%d, %d) overflows", elements, size),
		map[string]interface{}{"elements": elements, "size": size})
}

// HeapExtensionFailed reports that the heap-primitive collaborator could
// not extend the region.
func HeapExtensionFailed(requested uintptr, cause error) *StandardError {
	return New(CategoryIO, "HEAP_EXTENSION_FAILED",
		fmt.Sprintf("failed to extend heap by %d bytes: %v", requested, cause),
		map[string]interface{}{"requested": requested, "cause": cause})
}

// HeapCorruption reports a heap-checker invariant violation. The heap is
// never auto-repaired; the allocator's debug-mode check panics with this
// error.
func HeapCorruption(invariant string) *StandardError {
	return New(CategoryCorruption, "HEAP_CORRUPTION",
		fmt.Sprintf("heap invariant violated: %s", invariant),
		map[string]interface{}{"invariant": invariant})
}

// InvalidSize reports a request for a block of a disallowed size.
func InvalidSize(size uintptr, context string) *StandardError {
	return New(CategoryValidation, "INVALID_SIZE",
		fmt.Sprintf("invalid size %d in %s", size, context),
		map[string]interface{}{"size": size, "context": context})
}
