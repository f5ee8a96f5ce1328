package calculator

import (
	"sync/atomic"

	"himeno/model"

	"github.com/pkg/errors"
)

// RowRange 为半开区间 [Lo, Hi)
type RowRange struct {
	Lo int
	Hi int
}

func (rr RowRange) Len() int {
	if rr.Hi < rr.Lo {
		return 0
	}
	return rr.Hi - rr.Lo
}

// Claimer hands one worker its rows for the current sweep.
type Claimer interface {
	Claim() (RowRange, bool)
}

// Strategy decides which worker relaxes which interior rows during one sweep.
// Rows 0 and rows-1 are never handed out; every row in [1, rows-1) is handed
// out exactly once across the returned claimers.
type Strategy interface {
	Name() model.StrategyName
	Claimers(rows, workers int) []Claimer
}

func NewStrategy(name model.StrategyName) (Strategy, error) {
	switch name {
	case model.StrategyStatic, "":
		return staticRange{}, nil
	case model.StrategyDynamic:
		return dynamicCounter{}, nil
	default:
		return nil, errors.Errorf("unknown strategy %q", name)
	}
}

// 静态划分 ------------------------------------------------------------------------------------------------------------

type staticRange struct{}

func (staticRange) Name() model.StrategyName { return model.StrategyStatic }

func (staticRange) Claimers(rows, workers int) []Claimer {
	ranges := Partition(rows, workers)
	claimers := make([]Claimer, len(ranges))
	for i, rr := range ranges {
		claimers[i] = &staticClaimer{rr: rr}
	}
	return claimers
}

// Partition splits the interior rows into workers contiguous ranges. Worker i
// gets [1 + i*(rows-2)/workers, 1 + (i+1)*(rows-2)/workers); the last range
// ends at rows-1 and picks up the rounding remainder.
func Partition(rows, workers int) []RowRange {
	if workers < 1 {
		workers = 1
	}
	n := rows - 2
	if n < 0 {
		n = 0
	}
	ranges := make([]RowRange, workers)
	for i := 0; i < workers; i++ {
		ranges[i] = RowRange{
			Lo: 1 + i*n/workers,
			Hi: 1 + (i+1)*n/workers,
		}
	}
	ranges[workers-1].Hi = 1 + n
	return ranges
}

type staticClaimer struct {
	rr      RowRange
	claimed bool
}

func (sc *staticClaimer) Claim() (RowRange, bool) {
	if sc.claimed || sc.rr.Len() == 0 {
		return RowRange{}, false
	}
	sc.claimed = true
	return sc.rr, true
}

// 动态划分 ------------------------------------------------------------------------------------------------------------

type dynamicCounter struct{}

func (dynamicCounter) Name() model.StrategyName { return model.StrategyDynamic }

// Claimers shares one counter among all workers of the sweep. The counter
// starts at the first interior row and every claim takes exactly one row.
func (dynamicCounter) Claimers(rows, workers int) []Claimer {
	if workers < 1 {
		workers = 1
	}
	next := new(atomic.Int64)
	next.Store(1)
	end := int64(rows - 1)
	claimers := make([]Claimer, workers)
	for i := range claimers {
		claimers[i] = &dynamicClaimer{next: next, end: end}
	}
	return claimers
}

type dynamicClaimer struct {
	next *atomic.Int64
	end  int64
}

func (dc *dynamicClaimer) Claim() (RowRange, bool) {
	r := dc.next.Add(1) - 1
	if r >= dc.end {
		return RowRange{}, false
	}
	return RowRange{Lo: int(r), Hi: int(r) + 1}, true
}
