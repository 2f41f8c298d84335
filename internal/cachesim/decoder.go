package cachesim

// Config carries the three bit-width parameters a simulated cache is built
// from. It is immutable once a Cache is constructed.
type Config struct {
	SetIndexBits int // s: S = 1<<s sets
	Lines        int // E: associativity (lines per set)
	BlockBits    int // b: B = 1<<b bytes per line
}

// SetCount returns S = 1<<s.
func (c Config) SetCount() int { return 1 << c.SetIndexBits }

// BlockSize returns B = 1<<b.
func (c Config) BlockSize() int64 { return 1 << c.BlockBits }

// decode splits a 64-bit address into (tag, setIndex, offset):
// offset = A & (B-1); setIndex = (A >> b) & (S-1); tag = A >> (s+b).
func (c Config) decode(addr uint64) (tag int64, setIndex int, offset int64) {
	b := uint(c.BlockBits)
	s := uint(c.SetIndexBits)

	offset = int64(addr & ((1 << b) - 1))
	setIndex = int(addr>>b) & (c.SetCount() - 1)
	tag = int64(addr >> (s + b))

	return tag, setIndex, offset
}
