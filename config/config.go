// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
)

// config 服务配置
type config struct {
	ListenAddr string    `json:"listen"`           // HTTP API 服务侦听地址和端口
	CtrlAddr   string    `json:"control"`          // 控制服务侦听地址和端口
	PoolSize   int       `json:"framepool"`        // 帧池容量
	Module     string    `json:"module,omitempty"` // 演示模块的预配置串
	Profile    bool      `json:"profile"`          // 是否启动Profile
	Log        LogConfig `json:"log"`              // 日志配置
}

func (c *config) initFlags() {
	// 服务的端口
	flag.StringVar(&c.ListenAddr, "listen", ":9966", "Set server listen address")
	flag.StringVar(&c.CtrlAddr, "control", ":9967", "Set control service listen address")
	flag.IntVar(&c.PoolSize, "framepool", 10,
		"Set the maximum number of frames in the shared pool")
	flag.StringVar(&c.Module, "module", "",
		"Set the preconfiguration of a demo module to create on startup")
	flag.BoolVar(&c.Profile, "pprof", false,
		"Determines if profile enabled")

	// 初始化日志配置
	c.Log.initFlags()
}
