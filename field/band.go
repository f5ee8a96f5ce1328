package field

import "fmt"

// Band is the write token for the half-open row range [lo, hi) of plane 0.
// Workers of one sweep hold bands over disjoint ranges of the same field, so
// the only writes they can make never overlap.
type Band struct {
	f  *Field
	lo int
	hi int
}

// Band hands out write access to rows [lo, hi). It panics if the range is not
// inside the field.
func (f *Field) Band(lo, hi int) *Band {
	if lo < 0 || hi > f.rows || lo > hi {
		panic(fmt.Sprintf("field: band [%d, %d) outside %d rows", lo, hi, f.rows))
	}
	return &Band{f: f, lo: lo, hi: hi}
}

func (b *Band) Lo() int { return b.lo }
func (b *Band) Hi() int { return b.hi }

func (b *Band) Contains(r int) bool {
	return r >= b.lo && r < b.hi
}

// Row 返回可写的第 r 行，越界直接 panic
func (b *Band) Row(r int) []float64 {
	if !b.Contains(r) {
		panic(fmt.Sprintf("field: row %d outside band [%d, %d)", r, b.lo, b.hi))
	}
	start := r * b.f.rowSize
	return b.f.data[start : start+b.f.rowSize : start+b.f.rowSize]
}

// Set writes one cell of a row owned by the band.
func (b *Band) Set(r, c, d int, v float64) {
	b.Row(r)[c*b.f.deps+d] = v
}
