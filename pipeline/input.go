// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/xlog"
)

// Input 输入 Pin。
// Deliver 把一个已就绪的帧交给所属模块的事件处理器。
type Input struct {
	handle Handle
	config string
	params map[string]string
	ctrl   *Controller

	Flow   stats.Flow
	logger *xlog.Logger
}

func newInput(ctrl *Controller, handle Handle, config string, parent stats.Flow) *Input {
	return &Input{
		handle: handle,
		config: config,
		params: parseParams(config),
		ctrl:   ctrl,
		Flow:   stats.NewChildFlow(parent),
		logger: xlog.L().With(xlog.Fields(
			xlog.F("module", int(ctrl.handle)),
			xlog.F("input", int(handle)))),
	}
}

// Handle Pin 句柄
func (in *Input) Handle() Handle {
	return in.handle
}

// Module 所属模块句柄
func (in *Input) Module() Handle {
	return in.ctrl.handle
}

// Param 按 key 取 Pin 的配置参数
func (in *Input) Param(key string) string {
	return in.params[key]
}

// Deliver 投递新帧：在调用方 goroutine 上同步触发 CmdNewFrame 事件。
// 调用方持有的帧引用在事件处理返回前保持有效；
// 处理器若需异步持有帧，须自行 AddRef。
func (in *Input) Deliver(h frame.Handle) error {
	if in.ctrl.Status() != StateRunning {
		in.logger.Debugf("drop frame [%d], module not running", int(h))
		return ErrBadState
	}

	f := in.ctrl.pool.Get(h)
	if f == nil {
		return ErrFrameNotFound
	}
	in.Flow.AddIn(int64(f.Size()))

	in.ctrl.handler.HandleEvent(Event{
		Kind:   CmdNewFrame,
		Module: in.ctrl.handle,
		Pin:    in.handle,
		Frame:  h,
	})
	return nil
}
