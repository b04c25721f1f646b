// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/cnotch/framepipe/frame"
)

// EventKind 事件类型
type EventKind int

// 预定义事件
const (
	CmdStart    EventKind = iota // 模块开始摄取
	CmdStop                      // 模块停止摄取
	CmdQuit                      // 模块关闭
	CmdNewFrame                  // 输入 Pin 收到新帧
)

func (k EventKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdQuit:
		return "quit"
	case CmdNewFrame:
		return "newframe"
	default:
		return "unknown"
	}
}

// Event 模块/Pin 事件。
// 模块级事件（start/stop/quit）的 Pin 为 Invalid；
// 只有 CmdNewFrame 携带有效的 Frame 句柄。
type Event struct {
	Kind   EventKind
	Module Handle
	Pin    Handle
	Frame  frame.Handle
}

// Handler 事件处理接口，由使用管道的应用实现。
// 事件在触发方的 goroutine 上同步分发；Handler 实现内禁止回调
// 本模块的 Start/Stop/Close，否则行为未定义。
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc 包装函数以便它满足 Handler 接口
type HandlerFunc func(ev Event)

// HandleEvent 调用 f(ev)
func (f HandlerFunc) HandleEvent(ev Event) {
	f(ev)
}
