package server

import (
	"encoding/json"
	"runtime"

	"himeno/calculator"
	"himeno/model"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Hub serves one websocket connection. Requests are handled one at a time in
// arrival order; handleResponse is the only writer of the connection.
type Hub struct {
	conn    *websocket.Conn
	cfg     calculator.Config
	workers int
	// request
	msg chan model.Msg
	// response
	reply chan model.Msg
}

func NewHub(conn *websocket.Conn, cfg calculator.Config, workers int) *Hub {
	return &Hub{
		conn:    conn,
		cfg:     cfg,
		workers: workers,
		msg:     make(chan model.Msg, 10),
		reply:   make(chan model.Msg, 64),
	}
}

func (h *Hub) handleResponse() error {
	for reply := range h.reply {
		if err := h.conn.WriteJSON(&reply); err != nil {
			log.WithError(err).WithField("type", reply.Type).Warn("write message")
		}
	}
	return nil
}

func (h *Hub) handleRequest() error {
	defer close(h.reply)
	for msg := range h.msg {
		switch msg.Type {
		case model.MsgRun:
			if err := h.run(msg.Content); err != nil {
				h.replyError(err)
			}
		default:
			log.WithField("type", msg.Type).Warn("no such type")
			h.replyError(errors.Errorf("no such type %q", msg.Type))
		}
	}
	return nil
}

// 执行一次计算，迭代进度实时推送，结束后推送结果
func (h *Hub) run(content string) error {
	var req model.RunRequest
	if err := json.Unmarshal([]byte(content), &req); err != nil {
		return errors.Wrap(err, "decode run request")
	}
	req = h.withDefaults(req)
	if err := h.check(req); err != nil {
		return err
	}
	job, err := calculator.NewJob(req)
	if err != nil {
		return err
	}

	calcHub := calculator.NewCalcHub(64)
	job.Calculator.SetCalcHub(calcHub)
	pushed := make(chan struct{})
	go func() {
		defer close(pushed)
		for r := range calcHub.PeriodSweepReport {
			h.send(model.MsgProgress, r)
		}
	}()

	res := job.Run(false)
	calcHub.StopSignal()
	<-pushed
	h.send(model.MsgResult, res)
	return nil
}

func (h *Hub) withDefaults(req model.RunRequest) model.RunRequest {
	if req.Workers == 0 {
		req.Workers = h.workers
		if limit := h.maxWorkers(); req.Workers > limit {
			req.Workers = limit
		}
	}
	if req.Strategy == "" {
		req.Strategy = h.cfg.Strategy
	}
	if req.Kernel == "" {
		req.Kernel = h.cfg.Kernel
		if req.Variant == "" {
			req.Variant = h.cfg.Variant
		}
	}
	return req
}

func (h *Hub) check(req model.RunRequest) error {
	if req.Rows < 1 || req.Cols < 1 || req.Deps < 1 {
		return errors.Errorf("grid extents must be positive, got %dx%dx%d", req.Rows, req.Cols, req.Deps)
	}
	if limit := h.maxWorkers(); req.Workers < 1 || req.Workers > limit {
		return errors.Errorf("worker count must be in [1, %d], got %d", limit, req.Workers)
	}
	if h.cfg.MaxCells <= 0 {
		return nil
	}
	// 逐个维度检查，乘积不会溢出
	cells := 1
	for _, n := range []int{req.Rows, req.Cols, req.Deps} {
		if n > h.cfg.MaxCells/cells {
			return errors.Errorf("grid %dx%dx%d exceeds %d cells", req.Rows, req.Cols, req.Deps, h.cfg.MaxCells)
		}
		cells *= n
	}
	return nil
}

// 未配置时为 CPU 核数的 4 倍
func (h *Hub) maxWorkers() int {
	if h.cfg.MaxWorkers > 0 {
		return h.cfg.MaxWorkers
	}
	return 4 * runtime.NumCPU()
}

func (h *Hub) send(typ string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).WithField("type", typ).Error("encode reply")
		return
	}
	h.reply <- model.Msg{Type: typ, Content: string(data)}
}

func (h *Hub) replyError(err error) {
	log.WithError(err).Warn("request failed")
	h.reply <- model.Msg{Type: model.MsgError, Content: err.Error()}
}
