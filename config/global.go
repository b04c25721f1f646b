// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	cfg "github.com/cnotch/loader"
	"github.com/cnotch/xlog"
)

// 服务名
const (
	Vendor  = "CAOHONGJU"
	Name    = "framepipe"
	Version = "V1.0.0"
)

var globalC *config

// InitConfig 初始化 Config
func InitConfig() {
	exe, err := os.Executable()
	if err != nil {
		xlog.Panic(err.Error())
	}

	configPath := filepath.Join(filepath.Dir(exe), Name+".conf")

	globalC = new(config)
	globalC.initFlags()

	// 创建或加载配置文件
	if err := cfg.Load(globalC,
		&cfg.JSONLoader{Path: configPath, CreatedIfNonExsit: true},
		&cfg.EnvLoader{Prefix: strings.ToUpper(Name)},
		&cfg.FlagLoader{}); err != nil {
		// 异常，直接退出
		xlog.Panic(err.Error())
	}

	// 初始化日志
	globalC.Log.initLogger()
}

// Addr Listen addr
func Addr() string {
	if globalC == nil {
		return ":9966"
	}
	return globalC.ListenAddr
}

// CtrlAddr 控制服务侦听地址
func CtrlAddr() string {
	if globalC == nil {
		return ":9967"
	}
	return globalC.CtrlAddr
}

// PoolCapacity 帧池容量
func PoolCapacity() int {
	if globalC == nil || globalC.PoolSize <= 0 {
		return 10
	}
	return globalC.PoolSize
}

// DemoModule 启动时创建的演示模块预配置串
func DemoModule() string {
	if globalC == nil {
		return ""
	}
	return globalC.Module
}

// Profile 是否启动 Http Profile
func Profile() bool {
	if globalC == nil {
		return false
	}
	return globalC.Profile
}

// NetTimeout 返回网络超时设置
func NetTimeout() time.Duration {
	return time.Second * 45
}

// NetBufferSize 网络通讯时的BufferSize
func NetBufferSize() int {
	return 128 * 1024
}

// NetFlushRate 网络刷新频率
func NetFlushRate() int {
	return 30
}
