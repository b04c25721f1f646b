// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipeline 实现模块/Pin 图的生命周期和帧路由。
// 模块由预配置串创建，持有有序的输入/输出 Pin 集合；
// 帧经 Runtime.Send 进入输出 Pin 的发送队列，由异步发送协程传出。
package pipeline

import (
	"errors"
)

// Handle 模块或 Pin 的句柄。
// 模块句柄和 Pin 句柄各自独立编号；Pin 句柄只在其所属模块存续期内有效。
type Handle int

// Invalid 无效句柄
const Invalid Handle = -1

// 错误定义
var (
	// ErrModuleNotFound 模块句柄未注册
	ErrModuleNotFound = errors.New("pipeline: module not found")
	// ErrFrameNotFound 帧句柄没有对应的在用帧
	ErrFrameNotFound = errors.New("pipeline: frame not found")
	// ErrBadState 当前生命周期状态不允许该操作
	ErrBadState = errors.New("pipeline: operation not allowed in current state")
	// ErrClosed 模块已关闭
	ErrClosed = errors.New("pipeline: module is closed")
	// ErrBadConfig 预配置串无法解析
	ErrBadConfig = errors.New("pipeline: invalid configuration, parameter does not belong to a section")
	// ErrUnknownParam 未识别的 Pin 参数类型
	ErrUnknownParam = errors.New("pipeline: unknown pin parameter")
	// ErrBadParamValue Pin 参数值类型不符
	ErrBadParamValue = errors.New("pipeline: bad pin parameter value")
)
