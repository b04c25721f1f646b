// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"sort"
	"sync"

	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/xlog"
)

// Option 运行时配置选项
type Option func(*Runtime)

// WithPoolCapacity 设置帧池容量
func WithPoolCapacity(capacity int) Option {
	return func(r *Runtime) {
		r.pool = frame.NewPool(capacity)
	}
}

// WithLogger 设置运行时日志
func WithLogger(logger *xlog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// Runtime 管道运行时：共享帧池加模块注册表。
// 模块句柄由单调递增的计数器分配，关闭模块不影响其它模块的句柄。
type Runtime struct {
	logger *xlog.Logger
	pool   *frame.Pool
	flow   stats.Flow

	mu         sync.Mutex
	modules    map[Handle]*Controller
	nextModule Handle
}

// NewRuntime 创建管道运行时
func NewRuntime(options ...Option) *Runtime {
	r := &Runtime{
		logger:  xlog.L(),
		pool:    frame.NewPool(0),
		flow:    stats.NewFlow(),
		modules: make(map[Handle]*Controller),
	}

	for _, option := range options {
		option(r)
	}
	return r
}

// Pool 共享帧池
func (r *Runtime) Pool() *frame.Pool {
	return r.pool
}

// Flow 全局帧流量统计
func (r *Runtime) Flow() stats.Flow {
	return r.flow
}

// CreateModule 按预配置创建模块并完成初始化。
// Pin 按预配置中的出现顺序创建；handler 为 nil 时使用空处理器。
func (r *Runtime) CreateModule(listenPort int, handler Handler, config string) (Handle, error) {
	if handler == nil {
		handler = HandlerFunc(func(Event) {})
	}

	cfg, err := parsePreconfig(config)
	if err != nil {
		r.logger.Errorf("create module failed; %s", err.Error())
		return Invalid, err
	}

	r.mu.Lock()
	handle := r.nextModule
	r.nextModule++
	r.mu.Unlock()

	ctrl := newController(handle, listenPort, handler, r.pool, r.flow)
	for _, section := range cfg.inputs {
		ctrl.createInput(section)
	}
	for _, section := range cfg.outputs {
		ctrl.createOutput(section)
	}

	if err := ctrl.init(cfg.module); err != nil {
		return Invalid, err
	}

	r.mu.Lock()
	r.modules[handle] = ctrl
	r.mu.Unlock()

	r.logger.Infof("module [%d] created, %d input(s), %d output(s)",
		int(handle), len(cfg.inputs), len(cfg.outputs))
	return handle, nil
}

// Module 按句柄取模块控制器
func (r *Runtime) Module(h Handle) (*Controller, error) {
	r.mu.Lock()
	ctrl, ok := r.modules[h]
	r.mu.Unlock()

	if !ok {
		r.logger.Errorf("module [%d] not found", int(h))
		return nil, ErrModuleNotFound
	}
	return ctrl, nil
}

// StartModule 启动指定模块
func (r *Runtime) StartModule(h Handle) error {
	ctrl, err := r.Module(h)
	if err != nil {
		return err
	}
	return ctrl.Start()
}

// StopModule 停止指定模块
func (r *Runtime) StopModule(h Handle) error {
	ctrl, err := r.Module(h)
	if err != nil {
		return err
	}
	return ctrl.Stop()
}

// CloseModule 关闭指定模块并从注册表移除
func (r *Runtime) CloseModule(h Handle) error {
	ctrl, err := r.Module(h)
	if err != nil {
		return err
	}

	err = ctrl.Close()

	r.mu.Lock()
	delete(r.modules, h)
	r.mu.Unlock()
	return err
}

// Send 经模块的指定输出 Pin 发送帧。
// Pin 不存在时记录错误但不视为失败；帧不存在返回 ErrFrameNotFound。
func (r *Runtime) Send(module, output Handle, h frame.Handle) error {
	ctrl, err := r.Module(module)
	if err != nil {
		return err
	}
	if ctrl.Status() == StateClosed {
		return ErrClosed
	}

	out := ctrl.findOutput(output)
	if out == nil {
		ctrl.logger.Errorf("can't send anything, no output pin [%d]", int(output))
		return nil
	}

	if r.pool.Get(h) == nil {
		return ErrFrameNotFound
	}
	return out.Send(h)
}

// Deliver 向模块的指定输入 Pin 投递帧
func (r *Runtime) Deliver(module, input Handle, h frame.Handle) error {
	ctrl, err := r.Module(module)
	if err != nil {
		return err
	}

	in := ctrl.findInput(input)
	if in == nil {
		ctrl.logger.Errorf("can't deliver anything, no input pin [%d]", int(input))
		return nil
	}
	return in.Deliver(h)
}

// SetOutputParameter 设置输出 Pin 的命名参数。
// Pin 不存在时记录错误但不视为失败。
func (r *Runtime) SetOutputParameter(module, output Handle, param OutputParam, value interface{}) error {
	ctrl, err := r.Module(module)
	if err != nil {
		return err
	}

	out := ctrl.findOutput(output)
	if out == nil {
		ctrl.logger.Errorf("can't find output pin [%d]", int(output))
		return nil
	}
	return out.SetParameter(param, value)
}

// InputCount 模块的输入 Pin 数
func (r *Runtime) InputCount(module Handle) (int, error) {
	ctrl, err := r.Module(module)
	if err != nil {
		return 0, err
	}
	return len(ctrl.inputs), nil
}

// OutputCount 模块的输出 Pin 数
func (r *Runtime) OutputCount(module Handle) (int, error) {
	ctrl, err := r.Module(module)
	if err != nil {
		return 0, err
	}
	return len(ctrl.outputs), nil
}

// InputHandle 模块第 index 个输入 Pin 的句柄，模块不存在或越界返回 Invalid
func (r *Runtime) InputHandle(module Handle, index int) Handle {
	ctrl, err := r.Module(module)
	if err != nil {
		return Invalid
	}
	return ctrl.InputHandleAt(index)
}

// OutputHandle 模块第 index 个输出 Pin 的句柄，模块不存在或越界返回 Invalid
func (r *Runtime) OutputHandle(module Handle, index int) Handle {
	ctrl, err := r.Module(module)
	if err != nil {
		return Invalid
	}
	return ctrl.OutputHandleAt(index)
}

// Count 注册表中的模块数
func (r *Runtime) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

// Infos 所有模块的观测信息
func (r *Runtime) Infos() []*ModuleInfo {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.modules))
	for _, ctrl := range r.modules {
		ctrls = append(ctrls, ctrl)
	}
	r.mu.Unlock()

	sort.Slice(ctrls, func(i, j int) bool {
		return ctrls[i].handle < ctrls[j].handle
	})

	infos := make([]*ModuleInfo, 0, len(ctrls))
	for _, ctrl := range ctrls {
		infos = append(infos, ctrl.Info())
	}
	return infos
}

// Close 关闭全部模块
func (r *Runtime) Close() error {
	r.mu.Lock()
	ctrls := make([]*Controller, 0, len(r.modules))
	for h, ctrl := range r.modules {
		ctrls = append(ctrls, ctrl)
		delete(r.modules, h)
	}
	r.mu.Unlock()

	for _, ctrl := range ctrls {
		_ = ctrl.Close()
	}
	r.logger.Info("pipeline runtime closed")
	return nil
}
