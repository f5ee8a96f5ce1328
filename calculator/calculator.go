package calculator

import (
	"sync/atomic"
	"time"

	"himeno/field"
	"himeno/model"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Calculator is the iteration driver. It owns both buffers of the double
// buffered field; which one is read and which one is written is decided by
// the alternating flag alone, the data never moves.
type Calculator struct {
	kernel   Kernel
	strategy Strategy
	workers  int

	thermalField  *field.Field
	thermalField1 *field.Field
	// true 时 thermalField 为当前场, 每次迭代之后取反
	alternating bool

	e       *executor
	calcHub *CalcHub

	state    atomic.Int32
	sweep    atomic.Uint32
	failures int
}

// NewCalculator takes ownership of p as the current field. The alternate
// buffer starts as a copy of p so both share the never-written boundary.
func NewCalculator(p *field.Field, kernel Kernel, strategy Strategy, workers int) (*Calculator, error) {
	if p == nil {
		return nil, errors.New("calculator: nil field")
	}
	if kernel == nil || strategy == nil {
		return nil, errors.New("calculator: kernel and strategy are required")
	}
	if workers < 1 {
		return nil, errors.Errorf("calculator: worker count must be >= 1, got %d", workers)
	}
	c := &Calculator{
		kernel:        kernel,
		strategy:      strategy,
		workers:       workers,
		thermalField:  p,
		thermalField1: p.Clone(),
		alternating:   true,
		e:             newExecutor(workers, kernel),
	}
	return c, nil
}

func (c *Calculator) SetCalcHub(h *CalcHub) {
	c.calcHub = h
}

func (c *Calculator) GetCalcHub() *CalcHub {
	return c.calcHub
}

func (c *Calculator) Workers() int { return c.workers }

func (c *Calculator) Kernel() Kernel { return c.kernel }

func (c *Calculator) Strategy() Strategy { return c.strategy }

// Current 返回当前（读取）的场
func (c *Calculator) Current() *field.Field {
	if c.alternating {
		return c.thermalField
	}
	return c.thermalField1
}

// Next 返回当前（写入）的场
func (c *Calculator) Next() *field.Field {
	if c.alternating {
		return c.thermalField1
	}
	return c.thermalField
}

// 交换读写角色，不拷贝数据
func (c *Calculator) swap() {
	c.alternating = !c.alternating
}

// Progress reports the state and, while running, the sweep in progress.
func (c *Calculator) Progress() (State, uint32) {
	return State(c.state.Load()), c.sweep.Load()
}

// Failures is the number of abnormal worker exits during the last Run.
func (c *Calculator) Failures() int {
	return c.failures
}

// WorkerTimes is the busy time of every worker accumulated over all runs.
func (c *Calculator) WorkerTimes() []time.Duration {
	return c.e.workerTimes()
}

// Run performs sweeps Jacobi sweeps and returns the residual of the last one.
// Residuals of earlier sweeps are discarded; zero sweeps give 0.
func (c *Calculator) Run(sweeps uint32) float64 {
	c.state.Store(int32(Running))
	runsInFlight.Inc()
	defer func() {
		runsInFlight.Dec()
		c.state.Store(int32(Idle))
	}()

	rows := c.Current().Rows()
	labels := []string{string(c.strategy.Name()), string(c.kernel.Name())}
	c.failures = 0

	gosa := 0.0
	for n := uint32(0); n < sweeps; n++ {
		c.sweep.Store(n)
		final := n == sweeps-1

		calcDuration := c.e.dispatchTask(task{
			sweep:    n,
			final:    final,
			src:      c.Current(),
			dst:      c.Next(),
			claimers: c.strategy.Claimers(rows, c.workers),
		})
		// 求和顺序与 worker 数有关，不同 worker 数的结果只在舍入误差内一致
		gosa = floats.Sum(c.e.partials)

		if failed := c.e.failures(); failed > 0 {
			c.failures += failed
			log.WithFields(log.Fields{
				"sweep":  n,
				"failed": failed,
			}).Warn("sweep finished with missing worker contributions")
		}

		sweepsTotal.WithLabelValues(labels...).Inc()
		sweepDuration.WithLabelValues(labels...).Observe(calcDuration.Seconds())
		log.WithFields(log.Fields{
			"sweep":    n,
			"duration": calcDuration,
			"residual": gosa,
		}).Debug("sweep done")

		if c.calcHub != nil {
			c.calcHub.PushSweepReport(model.SweepReport{
				Sweep:    n,
				Sweeps:   sweeps,
				Duration: calcDuration,
				Residual: gosa,
				Final:    final,
			})
		}

		if !final {
			c.swap()
		}
	}

	lastResidual.Set(gosa)
	return gosa
}
