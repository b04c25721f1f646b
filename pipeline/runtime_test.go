// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/cnotch/framepipe/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder 记录分发给模块的事件
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) HandleEvent(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestModuleLifecycle(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	rec := &eventRecorder{}
	h, err := rt.CreateModule(0, rec, "name=lifecycle,in_type=mem,out_type=mem")
	require.NoError(t, err)

	ctrl, err := rt.Module(h)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, ctrl.Status())

	// 未启动不能 Stop
	assert.Equal(t, ErrBadState, rt.StopModule(h))

	assert.NoError(t, rt.StartModule(h))
	assert.Equal(t, StateRunning, ctrl.Status())
	// 重复 Start 被拒绝
	assert.Equal(t, ErrBadState, rt.StartModule(h))

	assert.NoError(t, rt.StopModule(h))
	assert.Equal(t, StateStopped, ctrl.Status())

	// 停止后可再次启动
	assert.NoError(t, rt.StartModule(h))
	assert.NoError(t, rt.CloseModule(h))
	assert.Equal(t, StateClosed, ctrl.Status())

	// 关闭即注销
	_, err = rt.Module(h)
	assert.Equal(t, ErrModuleNotFound, err)

	// Close 时运行中的模块先收到 stop
	assert.Equal(t, []EventKind{CmdStart, CmdStop, CmdStart, CmdStop, CmdQuit}, rec.kinds())
}

func TestModuleHandleStability(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h1, err := rt.CreateModule(0, nil, "name=a")
	require.NoError(t, err)
	h2, err := rt.CreateModule(0, nil, "name=b")
	require.NoError(t, err)
	h3, err := rt.CreateModule(0, nil, "name=c")
	require.NoError(t, err)

	// 关闭中间的模块不影响其它模块的句柄
	require.NoError(t, rt.CloseModule(h2))

	_, err = rt.Module(h1)
	assert.NoError(t, err)
	_, err = rt.Module(h3)
	assert.NoError(t, err)
	_, err = rt.Module(h2)
	assert.Equal(t, ErrModuleNotFound, err)

	// 句柄不复用
	h4, err := rt.CreateModule(0, nil, "name=d")
	require.NoError(t, err)
	assert.NotEqual(t, h2, h4)
	assert.Equal(t, 3, rt.Count())
}

func TestPinHandles(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "in_type=mem,out_type=mem,in_type=mem,out_type=mem")
	require.NoError(t, err)

	inCount, err := rt.InputCount(h)
	require.NoError(t, err)
	assert.Equal(t, 2, inCount)
	outCount, err := rt.OutputCount(h)
	require.NoError(t, err)
	assert.Equal(t, 2, outCount)

	// 输入输出共享同一句柄序列，模块内互不重复
	seen := make(map[Handle]bool)
	for i := 0; i < inCount; i++ {
		ph := rt.InputHandle(h, i)
		assert.NotEqual(t, Invalid, ph)
		assert.False(t, seen[ph])
		seen[ph] = true
	}
	for i := 0; i < outCount; i++ {
		ph := rt.OutputHandle(h, i)
		assert.NotEqual(t, Invalid, ph)
		assert.False(t, seen[ph])
		seen[ph] = true
	}

	// 越界返回 Invalid
	assert.Equal(t, Invalid, rt.InputHandle(h, 2))
	assert.Equal(t, Invalid, rt.OutputHandle(h, -1))
	// 未知模块同样返回 Invalid
	assert.Equal(t, Invalid, rt.InputHandle(Handle(999), 0))
}

func TestSendAndRelease(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "in_type=mem,out_type=mem")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))
	out := rt.OutputHandle(h, 0)

	fh := rt.Pool().Create()
	require.NotEqual(t, frame.Invalid, fh)

	assert.NoError(t, rt.Send(h, out, fh))
	// 发送队列持有一份引用，调用方释放后帧仍在用
	assert.Equal(t, 1, rt.Pool().Release(fh))

	// 发送队列释放其引用后帧被回收
	assert.Eventually(t, func() bool {
		return rt.Pool().InUse() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSendUnknownOutput(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "name=noout")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))

	fh := rt.Pool().Create()
	// 没有对应的输出 Pin：记录错误但不视为失败
	assert.NoError(t, rt.Send(h, Handle(42), fh))
	rt.Pool().Release(fh)
}

func TestSendDeadFrame(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "in_type=mem,out_type=mem")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))
	out := rt.OutputHandle(h, 0)

	fh := rt.Pool().Create()
	rt.Pool().Release(fh)
	assert.Equal(t, ErrFrameNotFound, rt.Send(h, out, fh))
}

func TestSendAfterClose(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "out_type=mem")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))
	out := rt.OutputHandle(h, 0)

	ctrl, err := rt.Module(h)
	require.NoError(t, err)
	require.NoError(t, ctrl.Close())

	fh := rt.Pool().Create()
	defer rt.Pool().Release(fh)
	assert.Equal(t, ErrClosed, rt.Send(h, out, fh))
}

func TestCloseDrainsPending(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	rec := &eventRecorder{}
	h, err := rt.CreateModule(0, rec, "in_type=mem,out_type=mem")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))
	out := rt.OutputHandle(h, 0)

	for i := 0; i < 5; i++ {
		fh := rt.Pool().Create()
		require.NoError(t, rt.Send(h, out, fh))
		rt.Pool().Release(fh)
	}

	require.NoError(t, rt.CloseModule(h))
	// 关闭排空发送队列，所有在途引用归还
	assert.Equal(t, 0, rt.Pool().InUse())
}

func TestCloseRacesTransmit(t *testing.T) {
	rt := NewRuntime(WithPoolCapacity(8))
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "out_type=mem")
	require.NoError(t, err)
	require.NoError(t, rt.StartModule(h))
	out := rt.OutputHandle(h, 0)

	// 持续送帧让发送协程保持忙碌，随后立即关闭
	for i := 0; i < 200; i++ {
		fh := rt.Pool().Create()
		if fh == frame.Invalid {
			// 池满说明发送协程尚未消化，稍等
			time.Sleep(time.Millisecond)
			continue
		}
		require.NoError(t, rt.Send(h, out, fh))
		rt.Pool().Release(fh)
	}

	// 发送协程仍在出队时关闭：排空后所有在途引用必须归还
	require.NoError(t, rt.CloseModule(h))
	assert.Equal(t, 0, rt.Pool().InUse())
}

func TestConcurrentStart(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	rec := &eventRecorder{}
	h, err := rt.CreateModule(0, rec, "out_type=mem")
	require.NoError(t, err)

	// 多个控制面同时 Start，只允许一次成功
	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rt.StartModule(h)
		}()
	}
	wg.Wait()
	close(errs)

	started := 0
	for err := range errs {
		if err == nil {
			started++
		} else {
			assert.Equal(t, ErrBadState, err)
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, []EventKind{CmdStart}, rec.kinds())
}

func TestDeliver(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	rec := &eventRecorder{}
	h, err := rt.CreateModule(0, rec, "in_type=mem")
	require.NoError(t, err)
	in := rt.InputHandle(h, 0)

	fh := rt.Pool().Create()
	defer rt.Pool().Release(fh)

	// 未运行的模块拒绝投递
	assert.Equal(t, ErrBadState, rt.Deliver(h, in, fh))

	require.NoError(t, rt.StartModule(h))
	require.NoError(t, rt.Deliver(h, in, fh))

	kinds := rec.kinds()
	require.Equal(t, []EventKind{CmdStart, CmdNewFrame}, kinds)
	rec.mu.Lock()
	ev := rec.events[1]
	rec.mu.Unlock()
	assert.Equal(t, h, ev.Module)
	assert.Equal(t, in, ev.Pin)
	assert.Equal(t, fh, ev.Frame)
}

func TestSetOutputParameter(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "out_type=mem")
	require.NoError(t, err)
	out := rt.OutputHandle(h, 0)

	assert.NoError(t, rt.SetOutputParameter(h, out, OutputNoSend, true))
	assert.NoError(t, rt.SetOutputParameter(h, out, OutputFlushRate, 60))

	// 显式校验：值类型不符或参数未知都报错
	assert.Equal(t, ErrBadParamValue, rt.SetOutputParameter(h, out, OutputNoSend, "yes"))
	assert.Equal(t, ErrBadParamValue, rt.SetOutputParameter(h, out, OutputFlushRate, 0))
	assert.Equal(t, ErrUnknownParam, rt.SetOutputParameter(h, out, OutputParam(99), true))

	// Pin 不存在：记录错误但不视为失败
	assert.NoError(t, rt.SetOutputParameter(h, Handle(42), OutputNoSend, true))
}

func TestOutputNoSendStillReleases(t *testing.T) {
	rt := NewRuntime()
	defer rt.Close()

	h, err := rt.CreateModule(0, nil, "out_type=mem")
	require.NoError(t, err)
	out := rt.OutputHandle(h, 0)
	require.NoError(t, rt.SetOutputParameter(h, out, OutputNoSend, true))
	require.NoError(t, rt.StartModule(h))

	fh := rt.Pool().Create()
	require.NoError(t, rt.Send(h, out, fh))
	rt.Pool().Release(fh)

	assert.Eventually(t, func() bool {
		return rt.Pool().InUse() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestModuleInfos(t *testing.T) {
	rt := NewRuntime(WithPoolCapacity(4))
	defer rt.Close()

	h, err := rt.CreateModule(9000, nil, "in_type=mem,out_type=mem")
	require.NoError(t, err)

	infos := rt.Infos()
	require.Len(t, infos, 1)
	assert.Equal(t, h, infos[0].Handle)
	assert.Equal(t, "initialized", infos[0].Status)
	assert.Equal(t, 9000, infos[0].ListenPort)
	assert.Len(t, infos[0].Inputs, 1)
	assert.Len(t, infos[0].Outputs, 1)
}
