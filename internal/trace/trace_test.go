package trace

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseLineVariants(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Record
		ok   bool
	}{
		{"load with leading space", " L 7ff000,8", Record{Kind: KindLoad, Addr: 0x7ff000, Len: 8}, true},
		{"instruction fetch no leading space", "I 400000,5", Record{Kind: KindIgnore, Addr: 0x400000, Len: 5}, true},
		{"store", " S 10,4", Record{Kind: KindStore, Addr: 0x10, Len: 4}, true},
		{"modify", " M abc,1", Record{Kind: KindModify, Addr: 0xabc, Len: 1}, true},
		{"blank line", "", Record{}, false},
		{"comment", "# format >=1.0.0", Record{}, false},
		{"unknown type", " X 10,4", Record{}, false},
		{"missing comma", " L 10", Record{}, false},
		{"bad hex", " L zz,4", Record{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseLine(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}

			if ok && got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestScanSkipsMalformedLines(t *testing.T) {
	input := " L 10,4\nnot a trace line\n S 20,8\n"

	var recs []Record
	if err := Scan(strings.NewReader(input), func(r Record) { recs = append(recs, r) }); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	if recs[0].Kind != KindLoad || recs[1].Kind != KindStore {
		t.Fatalf("unexpected record kinds: %+v", recs)
	}
}

func TestCheckFormatHeaderNoHeaderIsCompatible(t *testing.T) {
	br := bufio.NewReader(strings.NewReader(" L 10,4\n"))

	compatible, declared, err := CheckFormatHeader(br)
	if err != nil {
		t.Fatalf("CheckFormatHeader: %v", err)
	}

	if !compatible || declared != "" {
		t.Fatalf("compatible=%v declared=%q, want true/\"\"", compatible, declared)
	}

	// The header peek must not have consumed the stream.
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}

	if line != " L 10,4\n" {
		t.Fatalf("stream was consumed by the peek: got %q", line)
	}
}

func TestCheckFormatHeaderSatisfiedConstraint(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("# format >=1.0.0\n L 10,4\n"))

	compatible, declared, err := CheckFormatHeader(br)
	if err != nil {
		t.Fatalf("CheckFormatHeader: %v", err)
	}

	if !compatible {
		t.Fatalf("expected >=1.0.0 to be satisfied by %s", RequiredFormat)
	}

	if declared != ">=1.0.0" {
		t.Fatalf("declared = %q, want %q", declared, ">=1.0.0")
	}
}

func TestCheckFormatHeaderUnsatisfiedConstraint(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("# format >=2.0.0\n L 10,4\n"))

	compatible, _, err := CheckFormatHeader(br)
	if err != nil {
		t.Fatalf("CheckFormatHeader: %v", err)
	}

	if compatible {
		t.Fatalf("expected >=2.0.0 to be incompatible with %s", RequiredFormat)
	}
}
