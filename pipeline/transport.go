// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"net"
	"strconv"

	"github.com/cnotch/framepipe/frame"
	"github.com/cnotch/xlog"
)

// Transport 输出 Pin 的帧发送通道。
// Send 在输出 Pin 的发送协程上串行调用，实现无需自己加锁。
type Transport interface {
	Send(f *frame.Frame) error
	Close() error
}

// discardTransport 丢弃一切的发送通道。
// 未配置或无法建立传输时输出 Pin 降级使用。
type discardTransport struct{}

func (discardTransport) Send(f *frame.Frame) error { return nil }
func (discardTransport) Close() error              { return nil }

// openTransport 按 Pin 参数建立发送通道。
// 建立失败不阻断管道：告警并降级为丢弃通道。
func openTransport(params map[string]string, logger *xlog.Logger) Transport {
	outType := params[outTypeKey]
	switch outType {
	case "tcp":
		t, err := openTCPTransport(params)
		if err != nil {
			logger.Warnf("open tcp transport failed, frames will be discarded; %s", err.Error())
			return discardTransport{}
		}
		return t
	case "rtp":
		t, err := openRTPTransport(params)
		if err != nil {
			logger.Warnf("open rtp transport failed, frames will be discarded; %s", err.Error())
			return discardTransport{}
		}
		return t
	case "", "mem":
		// 进程内路由由应用直接 Deliver，输出侧无传输
		return discardTransport{}
	default:
		logger.Warnf("unknown out_type '%s', frames will be discarded", outType)
		return discardTransport{}
	}
}

// transportAddr 从 Pin 参数提取目标地址
func transportAddr(params map[string]string) (string, error) {
	ip := params["ip"]
	if ip == "" {
		ip = "127.0.0.1"
	}

	port, err := strconv.Atoi(params["port"])
	if err != nil || port <= 0 {
		return "", ErrBadParamValue
	}

	return net.JoinHostPort(ip, strconv.Itoa(port)), nil
}
