// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameHeaders(t *testing.T) {
	f := &Frame{}
	f.reset(&Headers{Format: FormatVideo, Size: 16, Width: 2, Height: 2, Depth: 8, Sampling: SamplingRGBA})

	v, err := f.Header(HeaderWidth)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), v)

	assert.NoError(t, f.SetHeader(HeaderFrameNumber, 7))
	assert.Equal(t, 7, f.Headers().FrameNumber)

	assert.NoError(t, f.SetHeader(HeaderTimestamp, 1600000000000))
	ts, _ := f.Header(HeaderTimestamp)
	assert.Equal(t, int64(1600000000000), ts)

	_, err = f.Header(HeaderKind(99))
	assert.Equal(t, ErrUnknownHeader, err)
	assert.Equal(t, ErrUnknownHeader, f.SetHeader(HeaderKind(99), 1))
}

func TestFrameReset(t *testing.T) {
	f := &Frame{}
	f.reset(&Headers{Format: FormatAudio, Size: 8})
	copy(f.Payload(), "abcdefgh")

	// 缩小复用：截断并清零
	f.reset(&Headers{Format: FormatAudio, Size: 4})
	assert.Equal(t, 4, len(f.Payload()))
	assert.Equal(t, []byte{0, 0, 0, 0}, f.Payload())

	// 放大复用：重新分配
	f.reset(&Headers{Format: FormatAudio, Size: 16})
	assert.Equal(t, 16, len(f.Payload()))
}

func TestSamplingPixelBits(t *testing.T) {
	tests := []struct {
		sampling Sampling
		depth    int
		want     int
	}{
		{SamplingRGBA, 8, 32},
		{SamplingBGRA, 8, 32},
		{SamplingRGB, 8, 24},
		{SamplingBGR, 10, 30},
		{SamplingYCbCr422, 10, 20},
		{SamplingUnknown, 8, -1},
	}

	for _, tt := range tests {
		t.Run(tt.sampling.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sampling.PixelBits(tt.depth))
		})
	}
}
