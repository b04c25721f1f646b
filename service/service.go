// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnotch/framepipe/config"
	"github.com/cnotch/framepipe/network/websocket"
	"github.com/cnotch/framepipe/pipeline"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
	"github.com/kelindar/tcp"
)

// Service 网络服务对象(服务的入口)
type Service struct {
	context context.Context
	cancel  context.CancelFunc
	logger  *xlog.Logger
	runtime *pipeline.Runtime
	http    *http.Server
	ctrl    *tcp.Server
}

// NewService 创建服务
func NewService(ctx context.Context, l *xlog.Logger, runtime *pipeline.Runtime) (s *Service, err error) {
	ctx, cancel := context.WithCancel(ctx)
	s = &Service{
		context: ctx,
		cancel:  cancel,
		logger:  l,
		runtime: runtime,
		http:    new(http.Server),
		ctrl:    new(tcp.Server),
	}

	// 设置 http 的Handler
	mux := http.NewServeMux()

	if config.Profile() {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	s.initApis(mux)

	// 控制会话也可经 websocket 接入
	mux.HandleFunc("/control", func(w http.ResponseWriter, r *http.Request) {
		if wsc, ok := websocket.TryUpgrade(w, r, "/control"); ok {
			s.onAcceptConn(wsc)
		}
	})
	s.http.Handler = mux

	// 设置控制服务 AcceptHandler
	s.ctrl.OnAccept = s.onAcceptConn

	// 启动定时统计日志
	scheduler.PeriodFunc(time.Minute, time.Minute, s.logStats,
		"The task of scheduled logging of pool and flow statistics(1minute)")

	s.logger.Info("service configured")
	return s, nil
}

// Listen starts the service.
func (s *Service) Listen() (err error) {
	defer s.Close()
	s.hookSignals()

	// http api + ws control
	addr, err := address.Parse(config.Addr(), 9966)
	if err != nil {
		s.logger.Panic(err.Error())
	}
	hl, err := net.Listen("tcp", addr.String())
	if err != nil {
		s.logger.Panic(err.Error())
	}
	s.logger.Infof("starting the http listener, addr = %s.", addr.String())
	go s.http.Serve(hl)

	// tcp control
	ctrlAddr, err := address.Parse(config.CtrlAddr(), 9967)
	if err != nil {
		s.logger.Panic(err.Error())
	}
	cl, err := net.Listen("tcp", ctrlAddr.String())
	if err != nil {
		s.logger.Panic(err.Error())
	}
	s.logger.Infof("starting the control listener, addr = %s.", ctrlAddr.String())
	go s.ctrl.Serve(cl)

	s.logger.Infof("service started(%s).", config.Version)
	s.logger = xlog.L()
	// Block
	select {}
}

// Close closes gracefully the service.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	// 停止计划任务
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}

	// 关闭全部模块
	s.runtime.Close()
}

// 输出帧池和流量的周期统计
func (s *Service) logStats() {
	pool := s.runtime.Pool()
	flow := s.runtime.Flow().GetSample()
	conns := stats.CtrlConns.GetSample()

	s.logger.Infof("stats: modules=%d, frames=%d/%d inuse, flow in=%d(%dKB) out=%d(%dKB), ctrl conns=%d",
		s.runtime.Count(), pool.InUse(), pool.Capacity(),
		flow.InFrames, flow.InBytes/1024, flow.OutFrames, flow.OutBytes/1024,
		conns.Active)
}

// OnSignal starts the signal processing and makes su
func (s *Service) hookSignals() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range c {
			s.onSignal(sig)
		}
	}()
}

// OnSignal will be called when a OS-level signal is received.
func (s *Service) onSignal(sig os.Signal) {
	switch sig {
	case syscall.SIGTERM:
		fallthrough
	case syscall.SIGINT:
		s.logger.Warn(fmt.Sprintf("received signal %s, exiting...", sig.String()))
		s.Close()
		os.Exit(0)
	}
}
