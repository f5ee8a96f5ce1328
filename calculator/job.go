package calculator

import (
	"time"

	"himeno/model"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Job 把一次运行所需的场、kernel、划分策略组装在一起
type Job struct {
	Request    model.RunRequest
	Calculator *Calculator
}

// NewJob validates req, fills in defaults and builds the calculator. workers
// must already be resolved (>= 1).
func NewJob(req model.RunRequest) (*Job, error) {
	req = normalize(req)
	if req.Workers < 1 {
		return nil, errors.Errorf("worker count must be >= 1, got %d", req.Workers)
	}
	strategy, err := NewStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}
	p, kernel, err := initParameters(req)
	if err != nil {
		return nil, err
	}
	c, err := NewCalculator(p, kernel, strategy, req.Workers)
	if err != nil {
		return nil, err
	}
	return &Job{Request: req, Calculator: c}, nil
}

// Run executes the job. With reference set the single-threaded baseline runs
// instead of the calculator; it reads the same initial field.
func (j *Job) Run(reference bool) model.RunResult {
	req := j.Request
	log.WithFields(log.Fields{
		"problem":   req.Problem.String(),
		"workers":   req.Workers,
		"strategy":  req.Strategy,
		"kernel":    req.Kernel,
		"variant":   req.Variant,
		"reference": reference,
	}).Info("run started")

	start := time.Now()
	var residual float64
	if reference {
		residual = Reference(j.Calculator.Current(), j.Calculator.Kernel(), req.Sweeps)
	} else {
		residual = j.Calculator.Run(req.Sweeps)
	}
	elapsed := time.Since(start)

	res := model.RunResult{
		Problem:  req.Problem,
		Workers:  req.Workers,
		Strategy: req.Strategy,
		Kernel:   req.Kernel,
		Variant:  req.Variant,
		Residual: residual,
		Elapsed:  elapsed,
		MFlops:   mflops(req.Problem, j.Calculator.Kernel().FlopsPerCell(), elapsed),
	}
	if !reference {
		res.WorkerTimes = j.Calculator.WorkerTimes()
		res.Failures = j.Calculator.Failures()
	}

	log.WithFields(log.Fields{
		"elapsed":  elapsed,
		"mflops":   res.MFlops,
		"residual": residual,
	}).Info("run finished")
	for i, t := range res.WorkerTimes {
		log.WithFields(log.Fields{"worker": i, "busy": t}).Debug("worker time")
	}
	return res
}

// 百万次浮点运算每秒
func mflops(p model.Problem, flopsPerCell int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	flops := float64(p.Cells()) * float64(flopsPerCell) * float64(p.Sweeps)
	return flops / elapsed.Seconds() / 1e6
}
