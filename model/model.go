package model

import (
	"fmt"
	"time"
)

// 计算问题的描述
type Problem struct {
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Deps   int    `json:"deps"`
	Sweeps uint32 `json:"sweeps"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%dx%dx%d with %d iterations", p.Rows, p.Cols, p.Deps, p.Sweeps)
}

// Cells is the number of interior cells relaxed per sweep.
func (p Problem) Cells() int {
	if p.Rows < 3 || p.Cols < 3 || p.Deps < 3 {
		return 0
	}
	return (p.Rows - 2) * (p.Cols - 2) * (p.Deps - 2)
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const (
	MsgRun      = "run"
	MsgProgress = "progress"
	MsgResult   = "result"
	MsgError    = "error"
)

// 运行请求，Workers 为 0 时使用服务端的默认配置
type RunRequest struct {
	Problem
	Workers  int          `json:"workers"`
	Strategy StrategyName `json:"strategy"`
	Kernel   KernelName   `json:"kernel"`
	Variant  Variant      `json:"variant"`
}

// 每次迭代完成后推送的进度
type SweepReport struct {
	Sweep    uint32        `json:"sweep"`
	Sweeps   uint32        `json:"sweeps"`
	Duration time.Duration `json:"duration"`
	Residual float64       `json:"residual"`
	Final    bool          `json:"final"`
}

// 一次完整运行的结果
type RunResult struct {
	Problem
	Workers     int             `json:"workers"`
	Strategy    StrategyName    `json:"strategy"`
	Kernel      KernelName      `json:"kernel"`
	Variant     Variant         `json:"variant"`
	Residual    float64         `json:"residual"`
	Elapsed     time.Duration   `json:"elapsed"`
	MFlops      float64         `json:"mflops"`
	WorkerTimes []time.Duration `json:"worker_times"`
	Failures    int             `json:"failures"`
}
