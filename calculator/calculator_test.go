package calculator

import (
	"testing"

	"himeno/field"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
)

func kernels(t *testing.T, rows, cols, deps int) []Kernel {
	return []Kernel{sixPoint{}, newCoefficientKernel(t, rows, cols, deps)}
}

func TestNewCalculator(t *testing.T) {
	p := newField(t, 5, 5, 5, field.ShiftedSquare)

	_, err := NewCalculator(nil, sixPoint{}, staticRange{}, 1)
	assert.Error(t, err)
	_, err = NewCalculator(p, nil, staticRange{}, 1)
	assert.Error(t, err)
	_, err = NewCalculator(p, sixPoint{}, staticRange{}, 0)
	assert.Error(t, err)

	c, err := NewCalculator(p, sixPoint{}, dynamicCounter{}, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Workers())
	assert.Same(t, p, c.Current())
	assert.NotSame(t, p, c.Next())
	state, _ := c.Progress()
	assert.Equal(t, Idle, state)
}

func TestCalculator_ZeroSweeps(t *testing.T) {
	p := newField(t, 9, 9, 9, field.ShiftedSquare)
	for _, s := range []Strategy{staticRange{}, dynamicCounter{}} {
		c, err := NewCalculator(p.Clone(), sixPoint{}, s, 3)
		require.NoError(t, err)
		assert.Equal(t, 0.0, c.Run(0))
	}
	assert.Equal(t, 0.0, Reference(p, sixPoint{}, 0))
}

// One worker sees one summation order only, so both strategies must give the
// reference result bit for bit.
func TestCalculator_SingleWorkerMatchesReference(t *testing.T) {
	const rows, cols, deps = 11, 9, 13
	for _, k := range kernels(t, rows, cols, deps) {
		for _, formula := range []field.RowFormula{field.Square, field.ShiftedSquare} {
			p := newField(t, rows, cols, deps, formula)
			for _, sweeps := range []uint32{1, 2, 7} {
				want := Reference(p, k, sweeps)
				for _, s := range []Strategy{staticRange{}, dynamicCounter{}} {
					c, err := NewCalculator(p.Clone(), k, s, 1)
					require.NoError(t, err)
					assert.Equal(t, want, c.Run(sweeps), "%s %s sweeps=%d", k.Name(), s.Name(), sweeps)
				}
			}
		}
	}
}

// Different worker counts only change how the partial residuals are grouped.
func TestCalculator_StrategiesAgree(t *testing.T) {
	const rows, cols, deps = 24, 17, 19
	const sweeps = 6
	for _, k := range kernels(t, rows, cols, deps) {
		p := newField(t, rows, cols, deps, field.Square)
		want := Reference(p, k, sweeps)
		for _, workers := range []int{1, 2, 3, 7, 16, 40} {
			for _, s := range []Strategy{staticRange{}, dynamicCounter{}} {
				c, err := NewCalculator(p.Clone(), k, s, workers)
				require.NoError(t, err)
				got := c.Run(sweeps)
				assert.True(t, scalar.EqualWithinAbsOrRel(want, got, 1e-18, 1e-12),
					"%s %s workers=%d: want %v got %v", k.Name(), s.Name(), workers, want, got)
				assert.Zero(t, c.Failures())
			}
		}
	}
}

// The fields after a run do not depend on the strategy or worker count at all.
func TestCalculator_FieldsIndependentOfStrategy(t *testing.T) {
	p := newField(t, 20, 8, 8, field.ShiftedSquare)
	a, err := NewCalculator(p.Clone(), sixPoint{}, staticRange{}, 3)
	require.NoError(t, err)
	b, err := NewCalculator(p.Clone(), sixPoint{}, dynamicCounter{}, 5)
	require.NoError(t, err)
	a.Run(4)
	b.Run(4)
	for r := 0; r < 20; r++ {
		assert.Equal(t, a.Current().Row(r), b.Current().Row(r), "row %d", r)
	}
}

func TestCalculator_Swap(t *testing.T) {
	p := newField(t, 6, 6, 6, field.ShiftedSquare)
	c, err := NewCalculator(p, sixPoint{}, staticRange{}, 2)
	require.NoError(t, err)
	other := c.Next()

	// 最后一次迭代不交换: n 次迭代交换 n-1 次
	c.Run(2)
	assert.Same(t, other, c.Current())
	assert.Same(t, p, c.Next())
	c.Run(3)
	assert.Same(t, other, c.Current())
	c.Run(1)
	assert.Same(t, other, c.Current())
}

func TestCalculator_FinalSweepDoesNotWrite(t *testing.T) {
	p := newField(t, 8, 7, 6, field.Square)
	before := p.Clone()
	c, err := NewCalculator(p, sixPoint{}, dynamicCounter{}, 3)
	require.NoError(t, err)

	assert.NotZero(t, c.Run(1))
	for r := 0; r < 8; r++ {
		assert.Equal(t, before.Row(r), c.Current().Row(r))
		assert.Equal(t, before.Row(r), c.Next().Row(r))
	}
}

type panicKernel struct {
	Kernel
	row int
}

func (k panicKernel) Relax(src *field.Field, dst *field.Band, r int) float64 {
	if r == k.row {
		panic("relax failed")
	}
	return k.Kernel.Relax(src, dst, r)
}

func TestCalculator_WorkerPanic(t *testing.T) {
	p := newField(t, 10, 6, 6, field.ShiftedSquare)
	// 两个 worker: [1, 5) 和 [5, 9)，第二个 worker 在第一行就失败
	want := 0.0
	for r := 1; r < 5; r++ {
		want += sixPoint{}.Relax(p, nil, r)
	}

	panics := testutil.ToFloat64(workerPanics)
	c, err := NewCalculator(p, panicKernel{Kernel: sixPoint{}, row: 5}, staticRange{}, 2)
	require.NoError(t, err)
	assert.Equal(t, want, c.Run(1))
	assert.Equal(t, 1, c.Failures())
	assert.Equal(t, panics+1, testutil.ToFloat64(workerPanics))

	state, _ := c.Progress()
	assert.Equal(t, Idle, state)
}

func TestCalculator_CalcHub(t *testing.T) {
	p := newField(t, 9, 9, 9, field.ShiftedSquare)
	c, err := NewCalculator(p, sixPoint{}, dynamicCounter{}, 2)
	require.NoError(t, err)
	hub := NewCalcHub(8)
	c.SetCalcHub(hub)
	assert.Same(t, hub, c.GetCalcHub())

	gosa := c.Run(3)
	hub.StopSignal()

	var sweeps []uint32
	var last float64
	for r := range hub.PeriodSweepReport {
		sweeps = append(sweeps, r.Sweep)
		assert.Equal(t, uint32(3), r.Sweeps)
		assert.Equal(t, r.Sweep == 2, r.Final)
		last = r.Residual
	}
	assert.Equal(t, []uint32{0, 1, 2}, sweeps)
	assert.Equal(t, gosa, last)
	assert.Zero(t, hub.Dropped())
}

func TestCalcHub_DropsWhenFull(t *testing.T) {
	hub := NewCalcHub(1)
	p := newField(t, 5, 5, 5, field.ShiftedSquare)
	c, err := NewCalculator(p, sixPoint{}, staticRange{}, 1)
	require.NoError(t, err)
	c.SetCalcHub(hub)

	c.Run(4)
	assert.Equal(t, 3, hub.Dropped())
	hub.StopSignal()
	hub.StopSignal()
}

func TestCalculator_WorkerTimes(t *testing.T) {
	p := newField(t, 16, 16, 16, field.ShiftedSquare)
	c, err := NewCalculator(p, sixPoint{}, staticRange{}, 3)
	require.NoError(t, err)
	c.Run(2)
	times := c.WorkerTimes()
	require.Len(t, times, 3)
	for _, d := range times {
		assert.True(t, d > 0)
	}
}

func BenchmarkCalculator_Static(b *testing.B) {
	p := newField(b, 65, 65, 129, field.ShiftedSquare)
	c, _ := NewCalculator(p, sixPoint{}, staticRange{}, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Run(1)
	}
}

func BenchmarkCalculator_Dynamic(b *testing.B) {
	p := newField(b, 65, 65, 129, field.ShiftedSquare)
	c, _ := NewCalculator(p, sixPoint{}, dynamicCounter{}, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Run(1)
	}
}
