// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

import (
	"errors"
	"sync/atomic"
)

// HeaderKind 帧头字段类型
type HeaderKind int

// 预定义帧头字段
const (
	HeaderMediaFormat HeaderKind = iota
	HeaderMediaSize
	HeaderWidth
	HeaderHeight
	HeaderDepth
	HeaderSampling
	HeaderFrameNumber
	HeaderTimestamp
)

// ErrUnknownHeader 未识别的帧头字段类型
var ErrUnknownHeader = errors.New("frame: unknown header kind")

// Headers 帧的描述头
type Headers struct {
	Format      MediaFormat `json:"format"`
	Size        int         `json:"size"` // 媒体数据大小（字节）
	Width       int         `json:"width,omitempty"`
	Height      int         `json:"height,omitempty"`
	Depth       int         `json:"depth,omitempty"`
	Sampling    Sampling    `json:"sampling,omitempty"`
	FrameNumber int         `json:"frame_number,omitempty"`
	Timestamp   int64       `json:"timestamp,omitempty"` // 单位 ms 的 UNIX 时间
}

// Frame 单个媒体帧：描述头 + 数据缓冲 + 引用计数。
// Frame 对象由 Pool 的槽位独占持有，外部只通过句柄引用；
// 持有引用（计数>0）期间才可以安全访问缓冲区。
type Frame struct {
	headers Headers
	payload []byte
	refs    int32
}

// Headers 返回帧描述头的指针，允许直接读写字段
func (f *Frame) Headers() *Headers {
	return &f.headers
}

// Size 媒体数据大小（字节）
func (f *Frame) Size() int {
	return f.headers.Size
}

// Payload 返回媒体数据缓冲区，长度等于声明的媒体大小
func (f *Frame) Payload() []byte {
	return f.payload
}

// Refs 当前引用计数
func (f *Frame) Refs() int {
	return int(atomic.LoadInt32(&f.refs))
}

// Header 按字段类型取帧头值
func (f *Frame) Header(kind HeaderKind) (int64, error) {
	switch kind {
	case HeaderMediaFormat:
		return int64(f.headers.Format), nil
	case HeaderMediaSize:
		return int64(f.headers.Size), nil
	case HeaderWidth:
		return int64(f.headers.Width), nil
	case HeaderHeight:
		return int64(f.headers.Height), nil
	case HeaderDepth:
		return int64(f.headers.Depth), nil
	case HeaderSampling:
		return int64(f.headers.Sampling), nil
	case HeaderFrameNumber:
		return int64(f.headers.FrameNumber), nil
	case HeaderTimestamp:
		return f.headers.Timestamp, nil
	default:
		return 0, ErrUnknownHeader
	}
}

// SetHeader 按字段类型设置帧头值。
// 注意：设置 HeaderMediaSize 不会调整缓冲区，缓冲区只在创建/复用时分配。
func (f *Frame) SetHeader(kind HeaderKind, value int64) error {
	switch kind {
	case HeaderMediaFormat:
		f.headers.Format = MediaFormat(value)
	case HeaderMediaSize:
		f.headers.Size = int(value)
	case HeaderWidth:
		f.headers.Width = int(value)
	case HeaderHeight:
		f.headers.Height = int(value)
	case HeaderDepth:
		f.headers.Depth = int(value)
	case HeaderSampling:
		f.headers.Sampling = Sampling(value)
	case HeaderFrameNumber:
		f.headers.FrameNumber = int(value)
	case HeaderTimestamp:
		f.headers.Timestamp = value
	default:
		return ErrUnknownHeader
	}
	return nil
}

// reset 应用新的描述头并把缓冲区整理到声明的大小。
// 槽位复用时调用，Frame 对象标识保持稳定，避免反复分配。
func (f *Frame) reset(h *Headers) {
	f.headers = *h
	if cap(f.payload) < h.Size {
		f.payload = make([]byte, h.Size)
	} else {
		f.payload = f.payload[:h.Size]
		for i := range f.payload {
			f.payload[i] = 0
		}
	}
}

func (f *Frame) addRef() int {
	return int(atomic.AddInt32(&f.refs, 1))
}

func (f *Frame) releaseRef() int {
	return int(atomic.AddInt32(&f.refs, -1))
}

// Descriptor 创建帧时的初始化参数
type Descriptor struct {
	Format   MediaFormat
	Size     int // 显式媒体大小；<=0 时视频帧按几何参数推导
	Width    int
	Height   int
	Depth    int
	Sampling Sampling
}

// 校验错误
var (
	ErrBadGeometry  = errors.New("frame: calculated media size not equal provided media size")
	ErrSizeRequired = errors.New("frame: media size required")
)

// headers 校验描述符并生成帧头。
// 视频帧：无显式大小时按 width*height*pixelbits/8 推导；
// 显式大小和完整几何同时给出时两者必须一致。
// 音频帧：必须给出正的显式大小。
func (d *Descriptor) headers() (Headers, error) {
	h := Headers{
		Format:   d.Format,
		Size:     d.Size,
		Width:    d.Width,
		Height:   d.Height,
		Depth:    d.Depth,
		Sampling: d.Sampling,
	}

	switch d.Format {
	case FormatVideo:
		if d.Size <= 0 {
			bits := d.Sampling.PixelBits(d.Depth)
			if bits <= 0 {
				return h, ErrSizeRequired
			}
			h.Size = d.Width * d.Height * bits / 8
			if h.Size <= 0 {
				return h, ErrSizeRequired
			}
		} else if d.Width > 0 && d.Height > 0 && d.Depth > 0 && d.Sampling != SamplingUnknown {
			bits := d.Sampling.PixelBits(d.Depth)
			if bits <= 0 || d.Width*d.Height*bits/8 != d.Size {
				return h, ErrBadGeometry
			}
		}
	case FormatAudio:
		if d.Size <= 0 {
			return h, ErrSizeRequired
		}
	default:
		if d.Size <= 0 {
			return h, ErrSizeRequired
		}
	}

	return h, nil
}
