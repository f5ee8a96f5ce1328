package calculator

import (
	"himeno/field"
)

// Reference is the single-threaded baseline: the same kernel over the same
// rows in ascending order, summed in the same grouping as one worker does.
// p is left untouched.
func Reference(p *field.Field, kernel Kernel, sweeps uint32) float64 {
	cur, next := p.Clone(), p.Clone()
	rows := cur.Rows()

	gosa := 0.0
	for n := uint32(0); n < sweeps; n++ {
		final := n == sweeps-1
		gosa = 0.0
		for r := 1; r < rows-1; r++ {
			var band *field.Band
			if !final {
				band = next.Band(r, r+1)
			}
			gosa += kernel.Relax(cur, band, r)
		}
		if !final {
			cur, next = next, cur
		}
	}
	return gosa
}
