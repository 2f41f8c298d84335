package trace

import (
	"bufio"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RequiredFormat is the trace format version csim supports. Trace files may
// declare a minimum format with a leading "# format >=1.0.0" comment,
// letting newer trace generators signal incompatibility with older readers
// instead of producing silently garbled results.
const RequiredFormat = "1.0.0"

// CheckFormatHeader peeks at a leading "# format <constraint>" comment, if
// present, and reports whether RequiredFormat satisfies it. Any other
// leading content (or the absence of a header) is treated as compatible —
// older traces have no such header at all. br is not advanced, so the
// caller can pass the same *bufio.Reader to Scan afterward.
func CheckFormatHeader(br *bufio.Reader) (compatible bool, declared string, err error) {
	peeked, err := br.Peek(64)
	if err != nil && err != io.EOF {
		return true, "", nil
	}

	line := string(peeked)
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}

	line = strings.TrimSpace(line)

	const prefix = "# format "
	if !strings.HasPrefix(line, prefix) {
		return true, "", nil
	}

	constraint := strings.TrimSpace(strings.TrimPrefix(line, prefix))

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return true, constraint, nil
	}

	v, err := semver.NewVersion(RequiredFormat)
	if err != nil {
		return true, constraint, nil
	}

	return c.Check(v), constraint, nil
}
