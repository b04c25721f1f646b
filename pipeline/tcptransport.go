// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"encoding/binary"
	"net"
	"strconv"

	"github.com/cnotch/framepipe/config"
	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/framepipe/network/socket/buffered"
)

// tcp 帧流的包头魔数 "FPIP"
const tcpFrameMagic = 0x46504950

// tcpHeaderSize 线上帧头长度：魔数 + 7 个描述字段 + 时间戳
const tcpHeaderSize = 4 * 8 + 8

// tcpTransport 把帧按 [帧头+数据] 的定界格式写入 TCP 连接。
// 写入经过带刷新频率限制的缓冲连接合并。
type tcpTransport struct {
	conn    *buffered.Conn
	scratch [tcpHeaderSize]byte
}

// openTCPTransport 建立 TCP 发送通道。
// 参数：ip、port 目标地址；flushrate 每秒刷新频率（可选）。
func openTCPTransport(params map[string]string) (Transport, error) {
	addr, err := transportAddr(params)
	if err != nil {
		return nil, err
	}

	socket, err := net.DialTimeout("tcp", addr, config.NetTimeout())
	if err != nil {
		return nil, err
	}

	flushRate := config.NetFlushRate()
	if v, err := strconv.Atoi(params["flushrate"]); err == nil && v > 0 {
		flushRate = v
	}

	return &tcpTransport{
		conn: buffered.NewConn(socket,
			buffered.FlushRate(flushRate),
			buffered.BufferSize(config.NetBufferSize())),
	}, nil
}

func (t *tcpTransport) Send(f *frame.Frame) error {
	h := f.Headers()
	b := t.scratch[:]
	binary.BigEndian.PutUint32(b[0:], tcpFrameMagic)
	binary.BigEndian.PutUint32(b[4:], uint32(h.Format))
	binary.BigEndian.PutUint32(b[8:], uint32(h.Size))
	binary.BigEndian.PutUint32(b[12:], uint32(h.Width))
	binary.BigEndian.PutUint32(b[16:], uint32(h.Height))
	binary.BigEndian.PutUint32(b[20:], uint32(h.Depth))
	binary.BigEndian.PutUint32(b[24:], uint32(h.Sampling))
	binary.BigEndian.PutUint32(b[28:], uint32(h.FrameNumber))
	binary.BigEndian.PutUint64(b[32:], uint64(h.Timestamp))

	if _, err := t.conn.Write(b); err != nil {
		return err
	}
	_, err := t.conn.Write(f.Payload())
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}
