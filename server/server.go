package server

import (
	"net/http"

	"himeno/calculator"
	"himeno/model"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	cfg      calculator.Config
	// 请求中未指定 worker 数时使用
	workers int
}

func NewServer(addr string, upgrader websocket.Upgrader, cfg calculator.Config, workers int) *Server {
	if workers < 1 {
		workers = 1
	}
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		cfg:      cfg,
		workers:  workers,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := NewHub(conn, s.cfg, s.workers)
	var g errgroup.Group
	g.Go(hub.handleRequest)
	g.Go(hub.handleResponse)

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("read message")
			}
			break
		}
		hub.msg <- msg
	}
	close(hub.msg)
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("connection closed with error")
	}
}

// Handler 路由: /ws 计算任务, /metrics 监控指标
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Server) Serve() error {
	log.WithFields(log.Fields{
		"addr":    s.addr,
		"workers": s.workers,
	}).Info("server listening")
	err := http.ListenAndServe(s.addr, s.Handler())
	return errors.Wrap(err, "ListenAndServe")
}
