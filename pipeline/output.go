// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/queue"
	"github.com/cnotch/xlog"
)

// OutputParam 输出 Pin 的参数类型
type OutputParam int

// 预定义输出参数
const (
	// OutputNoSend 传输控制开关：为 true 时帧照常出队和释放，但不经传输发出
	OutputNoSend OutputParam = iota
	// OutputFlushRate TCP 传输的每秒刷新频率，下次 start 建立传输时生效
	OutputFlushRate
)

// sendItem 发送队列中的一项
type sendItem struct {
	frame frame.Handle
}

// Output 输出 Pin。
// Send 把帧句柄连同一份引用转移进发送队列后立即返回；
// 发送协程异步出队、经传输发出并释放该引用。
type Output struct {
	handle Handle
	module Handle
	config string
	params map[string]string
	pool   *frame.Pool

	sendQueue *queue.SyncQueue
	pending   int32 // 队列中未出队的项数
	started   bool  // 发送协程是否已启动
	closed    int32
	done      chan struct{}
	nosend    int32

	transMu   sync.Mutex
	transport Transport

	Flow   stats.Flow
	logger *xlog.Logger
}

func newOutput(module, handle Handle, config string, pool *frame.Pool, parent stats.Flow) *Output {
	return &Output{
		handle:    handle,
		module:    module,
		config:    config,
		params:    parseParams(config),
		pool:      pool,
		sendQueue: queue.NewSyncQueue(),
		done:      make(chan struct{}),
		Flow:      stats.NewChildFlow(parent),
		logger: xlog.L().With(xlog.Fields(
			xlog.F("module", int(module)),
			xlog.F("output", int(handle)))),
	}
}

// Handle Pin 句柄
func (out *Output) Handle() Handle {
	return out.handle
}

// Module 所属模块句柄
func (out *Output) Module() Handle {
	return out.module
}

// Param 按 key 取 Pin 的配置参数
func (out *Output) Param(key string) string {
	return out.params[key]
}

// Pending 发送队列中等待发出的帧数
func (out *Output) Pending() int {
	return int(atomic.LoadInt32(&out.pending))
}

// Send 把帧加入发送队列。
// 引用计数加一转移给队列，入队顺序即调用顺序；不等待实际传输。
func (out *Output) Send(h frame.Handle) error {
	if out.isClosed() {
		return ErrClosed
	}

	refs := out.pool.AddRef(h)
	if refs < 0 {
		return ErrFrameNotFound
	}

	if f := out.pool.Get(h); f != nil {
		out.Flow.AddIn(int64(f.Size()))
	}

	atomic.AddInt32(&out.pending, 1)
	out.sendQueue.Push(sendItem{frame: h})
	return nil
}

// SetParameter 设置命名参数，未识别的参数类型报错
func (out *Output) SetParameter(param OutputParam, value interface{}) error {
	switch param {
	case OutputNoSend:
		v, ok := value.(bool)
		if !ok {
			return ErrBadParamValue
		}
		if v {
			atomic.StoreInt32(&out.nosend, 1)
		} else {
			atomic.StoreInt32(&out.nosend, 0)
		}
	case OutputFlushRate:
		v, ok := value.(int)
		if !ok || v <= 0 {
			return ErrBadParamValue
		}
		out.params["flushrate"] = strconv.Itoa(v)
	default:
		return ErrUnknownParam
	}
	return nil
}

// start 建立传输并启动发送协程（只启动一次）
func (out *Output) start() {
	out.setTransport(openTransport(out.params, out.logger))
	if !out.started {
		out.started = true
		go out.transmitLoop()
	}
}

// stop 断开传输；发送协程继续运行，出队的帧降级丢弃
func (out *Output) stop() {
	out.setTransport(discardTransport{})
}

func (out *Output) isClosed() bool {
	return atomic.LoadInt32(&out.closed) != 0
}

// close 结束发送协程并排空队列，释放所有在途引用
func (out *Output) close() {
	if !atomic.CompareAndSwapInt32(&out.closed, 0, 1) {
		return
	}

	out.sendQueue.Signal()
	// 哨兵项确保阻塞在 Pop 上的发送协程一定被唤醒
	out.sendQueue.Push(sendItem{frame: frame.Invalid})
	if out.started {
		<-out.done
	}

	// 发送协程已退出，安全地独占出队
	for atomic.LoadInt32(&out.pending) > 0 {
		p := out.sendQueue.Pop()
		if p == nil {
			continue
		}
		item := p.(sendItem)
		if item.frame == frame.Invalid {
			continue
		}
		atomic.AddInt32(&out.pending, -1)
		out.pool.Release(item.frame)
	}

	// 尽早通知GC，回收内存
	out.sendQueue.Reset()
	out.setTransport(nil)
}

func (out *Output) setTransport(t Transport) {
	out.transMu.Lock()
	old := out.transport
	out.transport = t
	out.transMu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (out *Output) currentTransport() Transport {
	out.transMu.Lock()
	defer out.transMu.Unlock()
	if out.transport == nil {
		return discardTransport{}
	}
	return out.transport
}

func (out *Output) transmitLoop() {
	defer func() {
		defer func() { // 避免 transport 再 panic
			recover()
		}()

		if r := recover(); r != nil {
			out.logger.Errorf("transmit routine panic; r = %v \n %s", r, debug.Stack())
		}

		close(out.done)
	}()

	for !out.isClosed() {
		p := out.sendQueue.Pop()
		if p == nil {
			if !out.isClosed() {
				out.logger.Warn("receive nil send item")
			}
			continue
		}

		item := p.(sendItem)
		if item.frame == frame.Invalid { // 关闭哨兵
			continue
		}
		atomic.AddInt32(&out.pending, -1)
		out.transmit(item)
	}
}

// transmit 发出一帧并归还队列持有的引用
func (out *Output) transmit(item sendItem) {
	defer out.pool.Release(item.frame)

	f := out.pool.Get(item.frame)
	if f == nil {
		out.logger.Warnf("frame [%d] vanished before transmit", int(item.frame))
		return
	}

	if atomic.LoadInt32(&out.nosend) != 0 {
		return
	}

	if err := out.currentTransport().Send(f); err != nil {
		out.logger.Warnf("transmit frame [%d] failed; %s", int(item.frame), err.Error())
		return
	}
	out.Flow.AddOut(int64(f.Size()))
}
