package calculator

import (
	"sync"

	"himeno/model"

	log "github.com/sirupsen/logrus"
)

// CalcHub carries per-sweep progress from a running calculator to whoever
// pushes it to a client. Reports are offered without blocking: a slow reader
// loses reports, it never slows down a sweep.
type CalcHub struct {
	PeriodSweepReport chan model.SweepReport

	once    sync.Once
	dropped int
}

func NewCalcHub(buffer int) *CalcHub {
	if buffer < 1 {
		buffer = 1
	}
	return &CalcHub{
		PeriodSweepReport: make(chan model.SweepReport, buffer),
	}
}

// 推送一次迭代的进度，通道满时丢弃
func (ch *CalcHub) PushSweepReport(r model.SweepReport) {
	select {
	case ch.PeriodSweepReport <- r:
	default:
		ch.dropped++
		log.WithFields(log.Fields{
			"sweep":   r.Sweep,
			"dropped": ch.dropped,
		}).Debug("sweep report dropped")
	}
}

// Dropped is only meaningful after the run that pushed the reports finished.
func (ch *CalcHub) Dropped() int {
	return ch.dropped
}

// 运行结束后关闭，读取方据此退出
func (ch *CalcHub) StopSignal() {
	ch.once.Do(func() {
		close(ch.PeriodSweepReport)
	})
}
