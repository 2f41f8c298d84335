package alloc

import (
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/orizon-lang/memsim/internal/heapmem/heapmock"
)

// TestAllocFailsWhenRegionCannotExtend exercises the heap-extension-failure
// path, which a real arena can only reach by being pre-sized to the exact
// byte down to the last allocation — brittle to set up and easy to defeat
// by a later change to header layout. A mock Region lets the failure be
// requested directly instead.
func TestAllocFailsWhenRegionCannotExtend(t *testing.T) {
	ctrl := gomock.NewController(t)
	region := heapmock.NewMockRegion(ctrl)

	region.EXPECT().Extend(gomock.Any()).Return(0, errors.New("out of address space")).AnyTimes()

	a := New(region, WithChunkSize(256))

	p := a.Alloc(64)
	if p != nil {
		t.Fatal("expected nil when the region refuses to extend at all")
	}
}

// TestAllocFailsWhenSecondExtensionFails covers growth after a successful
// initial heap: the first couple of Extend calls (prologue/epilogue, then
// the first chunk) succeed against a tiny backing array, and a later
// Extend call — once that array is exhausted — fails.
func TestAllocFailsWhenSecondExtensionFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	region := heapmock.NewMockRegion(ctrl)

	buf := make([]byte, 0, 64)
	calls := 0

	region.EXPECT().Extend(gomock.Any()).DoAndReturn(func(n uintptr) (int, error) {
		calls++
		if calls > 2 {
			return 0, errors.New("arena exhausted")
		}

		cur := len(buf)
		want := cur + int(n)

		if want > cap(buf) {
			return 0, errors.New("arena exhausted")
		}

		buf = buf[:want]

		return cur, nil
	}).AnyTimes()

	region.EXPECT().Bytes().DoAndReturn(func() []byte { return buf }).AnyTimes()

	a := New(region, WithChunkSize(32))

	p := a.Alloc(16)
	if p == nil {
		t.Fatal("first small allocation should succeed against the tiny backing array")
	}

	if big := a.Alloc(4096); big != nil {
		t.Fatal("expected nil once the mocked region refuses to extend further")
	}
}
