// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

import (
	"errors"
	"sync"

	"github.com/cnotch/xlog"
)

// Handle 帧句柄，标识池内的一个在用帧
type Handle int

// Invalid 无效帧句柄
const Invalid Handle = -1

// DefaultCapacity 池的默认容量
const DefaultCapacity = 10

// ErrBadCapacity 非法的池容量
var ErrBadCapacity = errors.New("frame: pool capacity must be positive")

// slot 池的槽位。
// Frame 对象随槽位创建，之后只复位不销毁，槽位也从不回收。
type slot struct {
	handle Handle // 仅在用时有效，空闲时为 Invalid
	frame  *Frame
	free   bool
}

// Pool 进程级媒体帧池。
// 所有句柄分配、空闲槽扫描和引用计数 0 边界的迁移都在一把互斥锁内完成；
// Get 之后对缓冲区的访问由引用计数协议保证，池本身不同步。
type Pool struct {
	logger     *xlog.Logger
	mu         sync.Mutex
	slots      []slot
	nextHandle Handle
	capacity   int
}

// NewPool 创建帧池，capacity<=0 时使用默认容量
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		logger:   xlog.L().With(xlog.Fields(xlog.F("component", "framepool"))),
		capacity: capacity,
	}
}

// Create 返回一个可用帧的句柄，没有空闲槽位时创建新帧。
// 帧的引用计数置为 1。池满且无空闲槽位时返回 Invalid。
func (p *Pool) Create() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 优先复用空闲槽位
	for i := range p.slots {
		if p.slots[i].free {
			p.slots[i].handle = p.nextHandle
			p.nextHandle++
			p.slots[i].frame.addRef()
			p.slots[i].free = false
			p.logger.Debugf("re-use slot with new handle [%d], pool size=%d", p.slots[i].handle, len(p.slots))
			return p.slots[i].handle
		}
	}

	if len(p.slots) >= p.capacity {
		p.logger.Errorf("too many frames in pool, current size is %d", len(p.slots))
		return Invalid
	}

	// 没有空闲槽位，新建一个
	s := slot{
		handle: p.nextHandle,
		frame:  &Frame{},
	}
	p.nextHandle++
	s.frame.addRef()
	p.slots = append(p.slots, s)
	p.logger.Infof("create new slot with handle [%d], pool size=%d", s.handle, len(p.slots))
	return s.handle
}

// CreateWithInit 校验描述符后创建帧，并按描述符初始化帧头和缓冲区。
// 校验失败或池满返回 Invalid。
func (p *Pool) CreateWithInit(d Descriptor) Handle {
	headers, err := d.headers()
	if err != nil {
		p.logger.Errorf("invalid frame descriptor; %s", err.Error())
		return Invalid
	}

	h := p.Create()
	if h != Invalid {
		p.Get(h).reset(&headers)
	}
	return h
}

// AddRef 增加帧的引用计数，返回新的计数；句柄未知返回 -1。
func (p *Pool) AddRef(h Handle) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if !p.slots[i].free && p.slots[i].handle == h {
			refs := p.slots[i].frame.addRef()
			p.logger.Debugf("refcounter for frame handle [%d] is %d", h, refs)
			return refs
		}
	}
	return -1
}

// Release 减少帧的引用计数，返回新的计数；句柄未知返回 -1。
// 计数降到 0 时槽位转为空闲，其句柄作废。
func (p *Pool) Release(h Handle) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if !p.slots[i].free && p.slots[i].handle == h {
			refs := p.slots[i].frame.releaseRef()
			if refs < 0 {
				// 不变式被破坏；槽位仍然转空闲，池状态保持可用
				p.logger.Errorf("refcount=%d for frame [%d], this should not happen", refs, h)
			}
			if refs <= 0 {
				p.slots[i].free = true
				p.slots[i].handle = Invalid
			}
			p.logger.Debugf("refcounter for frame handle [%d] is %d", h, refs)
			return refs
		}
	}
	return -1
}

// Get 返回句柄对应的帧对象，未知句柄返回 nil。
// 不改变引用计数；调用方必须持有引用才能安全使用返回的帧。
func (p *Pool) Get(h Handle) *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		if !p.slots[i].free && p.slots[i].handle == h {
			return p.slots[i].frame
		}
	}
	return nil
}

// Capacity 池容量
func (p *Pool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity
}

// SetCapacity 调整池容量；不收缩已存在的槽位
func (p *Pool) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return ErrBadCapacity
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity = capacity
	return nil
}

// Count 当前槽位数量（含空闲槽位）
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// InUse 当前在用的帧数量
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for i := range p.slots {
		if !p.slots[i].free {
			n++
		}
	}
	return n
}
