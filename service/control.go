// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/cnotch/framepipe/pipeline"
	"github.com/cnotch/framepipe/stats"
	"github.com/cnotch/xlog"
)

// 控制会话：每行一条命令。
//   start <module>   启动模块
//   stop <module>    停止模块
//   close <module>   关闭模块
//   report           输出全部模块的观测信息
//   quit             结束会话
// 应答为 "ok"、"bye" 或 "error: <原因>"；report 应答为 JSON。

// onAcceptConn 当新连接接入时触发
func (s *Service) onAcceptConn(c net.Conn) {
	go s.serveControl(c)
}

func (s *Service) serveControl(c net.Conn) {
	stats.CtrlConns.Add()
	logger := s.logger.With(xlog.Fields(xlog.F("remote", c.RemoteAddr().String())))
	logger.Info("control session opened")

	defer func() {
		stats.CtrlConns.Release()
		c.Close()
		logger.Info("control session closed")
	}()

	scanner := bufio.NewScanner(c)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.execCommand(c, logger, line) {
			return
		}
	}
}

// execCommand 执行单条控制命令，返回 false 表示会话结束
func (s *Service) execCommand(w io.Writer, logger *xlog.Logger, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "start", "stop", "close":
		if len(fields) < 2 {
			fmt.Fprintf(w, "error: %s requires a module handle\n", cmd)
			return true
		}
		h, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Fprintf(w, "error: bad module handle '%s'\n", fields[1])
			return true
		}

		logger.Infof("control command: %s %d", cmd, h)
		switch cmd {
		case "start":
			err = s.runtime.StartModule(pipeline.Handle(h))
		case "stop":
			err = s.runtime.StopModule(pipeline.Handle(h))
		case "close":
			err = s.runtime.CloseModule(pipeline.Handle(h))
		}
		if err != nil {
			fmt.Fprintf(w, "error: %s\n", err.Error())
		} else {
			fmt.Fprint(w, "ok\n")
		}

	case "report":
		if err := jsonTo(w, s.runtime.Infos()); err != nil {
			fmt.Fprintf(w, "error: %s\n", err.Error())
			return true
		}
		fmt.Fprint(w, "\n")

	case "quit":
		fmt.Fprint(w, "bye\n")
		return false

	default:
		fmt.Fprintf(w, "error: unknown command '%s'\n", cmd)
	}
	return true
}
