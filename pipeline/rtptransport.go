// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"math/rand"
	"net"
	"strconv"

	"github.com/cnotch/framepipe/frame"
	"github.com/pion/rtp"
)

const (
	// rtpMaxPayload 单个 RTP 包的最大载荷
	rtpMaxPayload = 1400
	// rtpDefaultPayloadType 动态载荷类型
	rtpDefaultPayloadType = 96
	// rtpClockRate 视频 RTP 时钟 90kHz，每 ms 90 ticks
	rtpTicksPerMilli = 90
)

// rtpTransport 把帧数据切分成 RTP 包经 UDP 发出。
// 同一帧的包共享时间戳，最后一包置 Marker。
type rtpTransport struct {
	conn        net.Conn
	payloadType uint8
	ssrc        uint32
	seq         uint16
}

// openRTPTransport 建立 RTP/UDP 发送通道。
// 参数：ip、port 目标地址；pt 载荷类型（可选，默认 96）。
func openRTPTransport(params map[string]string) (Transport, error) {
	addr, err := transportAddr(params)
	if err != nil {
		return nil, err
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	payloadType := uint8(rtpDefaultPayloadType)
	if v, err := strconv.Atoi(params["pt"]); err == nil && v > 0 && v < 128 {
		payloadType = uint8(v)
	}

	return &rtpTransport{
		conn:        conn,
		payloadType: payloadType,
		ssrc:        rand.Uint32(),
	}, nil
}

func (t *rtpTransport) Send(f *frame.Frame) error {
	timestamp := uint32(f.Headers().Timestamp * rtpTicksPerMilli)
	payload := f.Payload()

	for len(payload) > 0 {
		n := len(payload)
		if n > rtpMaxPayload {
			n = rtpMaxPayload
		}

		packet := rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         n == len(payload), // 帧的最后一包
				PayloadType:    t.payloadType,
				SequenceNumber: t.seq,
				Timestamp:      timestamp,
				SSRC:           t.ssrc,
			},
			Payload: payload[:n],
		}
		t.seq++
		payload = payload[n:]

		raw, err := packet.Marshal()
		if err != nil {
			return err
		}
		if _, err = t.conn.Write(raw); err != nil {
			return err
		}
	}

	return nil
}

func (t *rtpTransport) Close() error {
	return t.conn.Close()
}
