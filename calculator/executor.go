package calculator

import (
	"sync"
	"time"

	"himeno/field"

	log "github.com/sirupsen/logrus"
)

// 一次迭代的任务
type task struct {
	sweep    uint32
	final    bool
	src      *field.Field
	dst      *field.Field
	claimers []Claimer
}

// 每次迭代启动 workers 个 goroutine，全部结束后返回
type executor struct {
	workers int
	kernel  Kernel

	// 下标为 worker 编号，每个 worker 只写自己的位置
	partials []float64
	busy     []time.Duration
	failed   []bool
}

func newExecutor(workers int, kernel Kernel) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{
		workers:  workers,
		kernel:   kernel,
		partials: make([]float64, workers),
		busy:     make([]time.Duration, workers),
		failed:   make([]bool, workers),
	}
}

// dispatchTask runs one sweep and joins all workers before returning the wall
// time of the sweep.
func (e *executor) dispatchTask(t task) time.Duration {
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		e.partials[i] = 0
		e.failed[i] = false
		wg.Add(1)
		go e.work(&wg, i, t)
	}
	wg.Wait()
	return time.Since(start)
}

func (e *executor) work(wg *sync.WaitGroup, id int, t task) {
	start := time.Now()
	defer wg.Done()
	defer func() {
		e.busy[id] += time.Since(start)
		if r := recover(); r != nil {
			e.failed[id] = true
			e.partials[id] = 0
			workerPanics.Inc()
			log.WithFields(log.Fields{
				"worker": id,
				"sweep":  t.sweep,
				"panic":  r,
			}).Error("worker terminated abnormally, its residual is dropped")
		}
	}()

	var claimer Claimer
	if id < len(t.claimers) {
		claimer = t.claimers[id]
	}
	if claimer == nil {
		return
	}

	gosa := 0.0
	for {
		rr, ok := claimer.Claim()
		if !ok {
			break
		}
		var band *field.Band
		if !t.final {
			band = t.dst.Band(rr.Lo, rr.Hi)
		}
		for r := rr.Lo; r < rr.Hi; r++ {
			gosa += e.kernel.Relax(t.src, band, r)
		}
	}
	e.partials[id] = gosa
}

// 本次迭代中异常退出的 worker 数
func (e *executor) failures() int {
	n := 0
	for _, f := range e.failed {
		if f {
			n++
		}
	}
	return n
}

// workerTimes returns a copy of the accumulated busy time per worker.
func (e *executor) workerTimes() []time.Duration {
	times := make([]time.Duration, len(e.busy))
	copy(times, e.busy)
	return times
}
