package calculator

import (
	"sync"
	"testing"

	"himeno/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 收集所有 claimer 分到的行，返回每一行被分到的次数
func drain(claimers []Claimer) map[int]int {
	seen := make(map[int]int)
	for _, cl := range claimers {
		for {
			rr, ok := cl.Claim()
			if !ok {
				break
			}
			for r := rr.Lo; r < rr.Hi; r++ {
				seen[r]++
			}
		}
	}
	return seen
}

func assertCoverage(t *testing.T, seen map[int]int, rows int, msgAndArgs ...interface{}) {
	t.Helper()
	for r := 1; r < rows-1; r++ {
		assert.Equal(t, 1, seen[r], msgAndArgs...)
	}
	assert.Zero(t, seen[0], msgAndArgs...)
	assert.Zero(t, seen[rows-1], msgAndArgs...)
	interior := rows - 2
	if interior < 0 {
		interior = 0
	}
	assert.Len(t, seen, interior, msgAndArgs...)
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy("")
	require.NoError(t, err)
	assert.Equal(t, model.StrategyStatic, s.Name())
	s, err = NewStrategy(model.StrategyDynamic)
	require.NoError(t, err)
	assert.Equal(t, model.StrategyDynamic, s.Name())
	_, err = NewStrategy("round-robin")
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	assert.Equal(t, []RowRange{{1, 3}, {3, 6}, {6, 9}}, Partition(10, 3))
	assert.Equal(t, []RowRange{{1, 9}}, Partition(10, 1))
	// 行数少于 worker 数时部分区间为空
	assert.Equal(t, []RowRange{{1, 1}, {1, 2}}, Partition(3, 2))
}

func TestPartition_Coverage(t *testing.T) {
	for _, rows := range []int{3, 4, 10, 101} {
		for _, workers := range []int{1, 2, 3, 7, 16} {
			ranges := Partition(rows, workers)
			require.Len(t, ranges, workers)

			// 区间首尾相接，不重叠也没有空隙
			assert.Equal(t, 1, ranges[0].Lo)
			assert.Equal(t, rows-1, ranges[workers-1].Hi)
			for i := 1; i < workers; i++ {
				assert.Equal(t, ranges[i-1].Hi, ranges[i].Lo, "rows=%d workers=%d", rows, workers)
			}

			seen := drain(staticRange{}.Claimers(rows, workers))
			assertCoverage(t, seen, rows, "rows=%d workers=%d", rows, workers)
		}
	}
}

func TestStaticClaimer_ClaimsOnce(t *testing.T) {
	cl := staticRange{}.Claimers(10, 2)[1]
	rr, ok := cl.Claim()
	require.True(t, ok)
	assert.Equal(t, RowRange{5, 9}, rr)
	_, ok = cl.Claim()
	assert.False(t, ok)
}

func TestStrategy_NoInterior(t *testing.T) {
	for _, rows := range []int{1, 2} {
		for _, s := range []Strategy{staticRange{}, dynamicCounter{}} {
			assert.Empty(t, drain(s.Claimers(rows, 4)), "%s rows=%d", s.Name(), rows)
		}
	}
}

func TestDynamicCounter_Sequential(t *testing.T) {
	cl := dynamicCounter{}.Claimers(6, 1)
	require.Len(t, cl, 1)
	var got []int
	for {
		rr, ok := cl[0].Claim()
		if !ok {
			break
		}
		assert.Equal(t, 1, rr.Len())
		got = append(got, rr.Lo)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestDynamicCounter_Concurrent(t *testing.T) {
	for _, rows := range []int{3, 4, 10, 101, 1000} {
		for _, workers := range []int{1, 2, 3, 7, 16} {
			claimers := dynamicCounter{}.Claimers(rows, workers)
			require.Len(t, claimers, workers)

			per := make([]map[int]int, workers)
			var wg sync.WaitGroup
			for i := range claimers {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					per[i] = drain(claimers[i : i+1])
				}(i)
			}
			wg.Wait()

			seen := make(map[int]int)
			for _, m := range per {
				for r, n := range m {
					seen[r] += n
				}
			}
			assertCoverage(t, seen, rows, "rows=%d workers=%d", rows, workers)
		}
	}
}

// Each sweep gets a fresh counter.
func TestDynamicCounter_PerSweep(t *testing.T) {
	s := dynamicCounter{}
	first := drain(s.Claimers(10, 3))
	second := drain(s.Claimers(10, 3))
	assert.Equal(t, first, second)
}
