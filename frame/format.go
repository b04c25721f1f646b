// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

// MediaFormat 帧的媒体格式
type MediaFormat int

// 预定义媒体格式
const (
	FormatVideo MediaFormat = iota
	FormatAudio
)

func (f MediaFormat) String() string {
	switch f {
	case FormatVideo:
		return "video"
	case FormatAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Sampling 视频帧的采样格式
type Sampling int

// 预定义采样格式
const (
	SamplingUnknown Sampling = iota
	SamplingRGBA
	SamplingBGRA
	SamplingRGB
	SamplingBGR
	SamplingYCbCr422 // 4:2:2 色度抽样
)

func (s Sampling) String() string {
	switch s {
	case SamplingRGBA:
		return "RGBA"
	case SamplingBGRA:
		return "BGRA"
	case SamplingRGB:
		return "RGB"
	case SamplingBGR:
		return "BGR"
	case SamplingYCbCr422:
		return "YCbCr-4:2:2"
	default:
		return "unknown"
	}
}

// PixelBits 返回给定位深下单个像素占用的位数；不支持的采样格式返回 -1。
func (s Sampling) PixelBits(depth int) int {
	switch s {
	case SamplingRGBA, SamplingBGRA:
		return 4 * depth
	case SamplingRGB, SamplingBGR:
		return 3 * depth
	case SamplingYCbCr422:
		return 2 * depth
	default:
		return -1
	}
}
