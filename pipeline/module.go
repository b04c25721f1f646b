// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"sync/atomic"

	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/xlog"
)

// 模块状态
const (
	StateCreated int32 = iota // 已创建，Pin 尚未配置完成
	StateInitialized
	StateRunning
	StateStopped
	StateClosed
)

// StateName 状态的显示名
func StateName(status int32) string {
	switch status {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Controller 单个模块的生命周期控制。
// 持有模块的输入/输出 Pin，Pin 句柄在模块内唯一且不复用。
type Controller struct {
	handle     Handle
	listenPort int
	config     string
	handler    Handler
	pool       *frame.Pool
	flow       stats.Flow
	logger     *xlog.Logger

	status  int32
	nextPin Handle
	inputs  []*Input
	outputs []*Output
}

func newController(handle Handle, listenPort int, handler Handler, pool *frame.Pool, flow stats.Flow) *Controller {
	return &Controller{
		handle:     handle,
		listenPort: listenPort,
		handler:    handler,
		pool:       pool,
		flow:       flow,
		status:     StateCreated,
		logger: xlog.L().With(xlog.Fields(
			xlog.F("module", int(handle)))),
	}
}

// pinHandle 分配下一个 Pin 句柄，输入输出共享同一序列
func (c *Controller) pinHandle() Handle {
	h := c.nextPin
	c.nextPin++
	return h
}

func (c *Controller) createInput(config string) *Input {
	in := newInput(c, c.pinHandle(), config, c.flow)
	c.inputs = append(c.inputs, in)
	return in
}

func (c *Controller) createOutput(config string) *Output {
	out := newOutput(c.handle, c.pinHandle(), config, c.pool, c.flow)
	c.outputs = append(c.outputs, out)
	return out
}

// init 完成模块配置，Created -> Initialized
func (c *Controller) init(config string) error {
	if !atomic.CompareAndSwapInt32(&c.status, StateCreated, StateInitialized) {
		return ErrBadState
	}
	c.config = config
	return nil
}

// Start 启动模块：建立输出传输，再同步触发 start 事件。
// 仅允许从 Initialized 或 Stopped 进入 Running。
func (c *Controller) Start() error {
	for {
		status := atomic.LoadInt32(&c.status)
		if status != StateInitialized && status != StateStopped {
			c.logger.Errorf("can't start module in state '%s'", StateName(status))
			return ErrBadState
		}
		if atomic.CompareAndSwapInt32(&c.status, status, StateRunning) {
			break
		}
	}

	for _, out := range c.outputs {
		out.start()
	}

	c.handler.HandleEvent(Event{
		Kind:   CmdStart,
		Module: c.handle,
		Pin:    Invalid,
		Frame:  frame.Invalid,
	})
	c.logger.Info("module started")
	return nil
}

// Stop 停止模块：断开输出传输，再同步触发 stop 事件。
// 仅允许从 Running 进入 Stopped；停止后可再次 Start。
func (c *Controller) Stop() error {
	if !atomic.CompareAndSwapInt32(&c.status, StateRunning, StateStopped) {
		c.logger.Errorf("can't stop module in state '%s'", StateName(atomic.LoadInt32(&c.status)))
		return ErrBadState
	}

	for _, out := range c.outputs {
		out.stop()
	}

	c.handler.HandleEvent(Event{
		Kind:   CmdStop,
		Module: c.handle,
		Pin:    Invalid,
		Frame:  frame.Invalid,
	})
	c.logger.Info("module stopped")
	return nil
}

// Close 关闭模块：运行中则先 Stop，排空全部输出队列后触发 quit 事件。
// 关闭是终态，重复 Close 无副作用。
func (c *Controller) Close() error {
	status := atomic.LoadInt32(&c.status)
	if status == StateClosed {
		return nil
	}
	if status == StateRunning {
		_ = c.Stop()
	}

	for _, out := range c.outputs {
		out.close()
	}
	atomic.StoreInt32(&c.status, StateClosed)

	c.handler.HandleEvent(Event{
		Kind:   CmdQuit,
		Module: c.handle,
		Pin:    Invalid,
		Frame:  frame.Invalid,
	})
	c.logger.Info("module closed")
	return nil
}

// Handle 模块句柄
func (c *Controller) Handle() Handle {
	return c.handle
}

// ListenPort 模块创建时声明的监听端口
func (c *Controller) ListenPort() int {
	return c.listenPort
}

// Status 当前状态
func (c *Controller) Status() int32 {
	return atomic.LoadInt32(&c.status)
}

// Inputs 模块的输入 Pin 列表，按配置顺序
func (c *Controller) Inputs() []*Input {
	return c.inputs
}

// Outputs 模块的输出 Pin 列表，按配置顺序
func (c *Controller) Outputs() []*Output {
	return c.outputs
}

// InputHandleAt 第 index 个输入 Pin 的句柄，越界返回 Invalid
func (c *Controller) InputHandleAt(index int) Handle {
	if index < 0 || index >= len(c.inputs) {
		c.logger.Errorf("input index %d out of range [0,%d)", index, len(c.inputs))
		return Invalid
	}
	return c.inputs[index].handle
}

// OutputHandleAt 第 index 个输出 Pin 的句柄，越界返回 Invalid
func (c *Controller) OutputHandleAt(index int) Handle {
	if index < 0 || index >= len(c.outputs) {
		c.logger.Errorf("output index %d out of range [0,%d)", index, len(c.outputs))
		return Invalid
	}
	return c.outputs[index].handle
}

func (c *Controller) findInput(h Handle) *Input {
	for _, in := range c.inputs {
		if in.handle == h {
			return in
		}
	}
	return nil
}

func (c *Controller) findOutput(h Handle) *Output {
	for _, out := range c.outputs {
		if out.handle == h {
			return out
		}
	}
	return nil
}

// PinInfo Pin 的观测信息
type PinInfo struct {
	Handle  Handle           `json:"handle"`
	Params  string           `json:"params,omitempty"`
	Pending int              `json:"pending,omitempty"`
	Flow    stats.FlowSample `json:"flow"`
}

// ModuleInfo 模块的观测信息
type ModuleInfo struct {
	Handle     Handle    `json:"handle"`
	Status     string    `json:"status"`
	ListenPort int       `json:"listen_port"`
	Inputs     []PinInfo `json:"inputs"`
	Outputs    []PinInfo `json:"outputs"`
}

// Info 汇总模块当前的观测信息
func (c *Controller) Info() *ModuleInfo {
	info := &ModuleInfo{
		Handle:     c.handle,
		Status:     StateName(c.Status()),
		ListenPort: c.listenPort,
		Inputs:     make([]PinInfo, 0, len(c.inputs)),
		Outputs:    make([]PinInfo, 0, len(c.outputs)),
	}

	for _, in := range c.inputs {
		info.Inputs = append(info.Inputs, PinInfo{
			Handle: in.handle,
			Params: in.config,
			Flow:   in.Flow.GetSample(),
		})
	}
	for _, out := range c.outputs {
		info.Outputs = append(info.Outputs, PinInfo{
			Handle:  out.handle,
			Params:  out.config,
			Pending: out.Pending(),
			Flow:    out.Flow.GetSample(),
		})
	}
	return info
}
