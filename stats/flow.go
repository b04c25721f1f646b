// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// FlowSample 帧流量统计采样
type FlowSample struct {
	InFrames  int64 `json:"inframes"`
	OutFrames int64 `json:"outframes"`
	InBytes   int64 `json:"inbytes"`
	OutBytes  int64 `json:"outbytes"`
}

// Flow 帧流量统计接口
type Flow interface {
	AddIn(size int64)      // 增加一帧输入，size 为帧数据字节数
	AddOut(size int64)     // 增加一帧输出
	GetSample() FlowSample // 获取当前时点采样
}

func (fs *FlowSample) clone() FlowSample {
	return FlowSample{
		InFrames:  atomic.LoadInt64(&fs.InFrames),
		OutFrames: atomic.LoadInt64(&fs.OutFrames),
		InBytes:   atomic.LoadInt64(&fs.InBytes),
		OutBytes:  atomic.LoadInt64(&fs.OutBytes),
	}
}

type flow struct {
	sample FlowSample
}

// NewFlow 创建帧流量统计
func NewFlow() Flow {
	return &flow{}
}

func (r *flow) AddIn(size int64) {
	atomic.AddInt64(&r.sample.InFrames, 1)
	atomic.AddInt64(&r.sample.InBytes, size)
}

func (r *flow) AddOut(size int64) {
	atomic.AddInt64(&r.sample.OutFrames, 1)
	atomic.AddInt64(&r.sample.OutBytes, size)
}

func (r *flow) GetSample() FlowSample {
	return r.sample.clone()
}

type childFlow struct {
	parent Flow
	sample FlowSample
}

// NewChildFlow 创建子流量计数，它会把自己的计数 Add 到 parent 上
func NewChildFlow(parent Flow) Flow {
	return &childFlow{
		parent: parent,
	}
}

func (r *childFlow) AddIn(size int64) {
	atomic.AddInt64(&r.sample.InFrames, 1)
	atomic.AddInt64(&r.sample.InBytes, size)
	r.parent.AddIn(size)
}

func (r *childFlow) AddOut(size int64) {
	atomic.AddInt64(&r.sample.OutFrames, 1)
	atomic.AddInt64(&r.sample.OutBytes, size)
	r.parent.AddOut(size)
}

func (r *childFlow) GetSample() FlowSample {
	return r.sample.clone()
}
