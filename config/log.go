// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"flag"
	"os"

	"github.com/cnotch/xlog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig 日志配置。
// 控制台输出始终开启；开启 ToFile 后再以 JSON 形式写入滚动日志文件。
type LogConfig struct {
	// Level 输出的最低日志级别
	Level xlog.Level `json:"level"`

	// ToFile 是否同时将日志写入文件
	ToFile bool `json:"tofile"`

	// Filename 日志文件名称
	Filename string `json:"filename"`

	// MaxSize 单个日志文件的最大尺寸（MB），超过后滚动
	MaxSize int `json:"maxsize"`

	// MaxDays 旧日志最多保存多少天
	MaxDays int `json:"maxdays"`

	// MaxBackups 旧日志最多保留的个数。
	// 注意：旧日志同时受 MaxDays 和 MaxBackups 约束
	MaxBackups int `json:"maxbackups"`

	// Compress 滚动出的旧日志是否用 gzip 压缩
	Compress bool `json:"compress"`
}

func (c *LogConfig) initFlags() {
	// 日志配置的 Flag
	flag.Var(&c.Level, "log-level",
		"Set the log level to output")
	flag.BoolVar(&c.ToFile, "log-tofile", false,
		"Determines if logs should be saved to file")
	flag.StringVar(&c.Filename, "log-filename",
		"./logs/"+Name+".log", "Set the file to write logs to")
	flag.IntVar(&c.MaxSize, "log-maxsize", 20,
		"Set the maximum size in megabytes of the log file before it gets rotated")
	flag.IntVar(&c.MaxDays, "log-maxdays", 7,
		"Set the maximum days of old log files to retain")
	flag.IntVar(&c.MaxBackups, "log-maxbackups", 14,
		"Set the maximum number of old log files to retain")
	flag.BoolVar(&c.Compress, "log-compress", false,
		"Determines if the log files should be compressed")
}

// 初始化根日志并替换全局 Logger
func (c *LogConfig) initLogger() {
	consoleCore := xlog.NewCore(
		xlog.NewConsoleEncoder(xlog.LstdFlags|xlog.Lmicroseconds|xlog.Llongfile),
		xlog.Lock(os.Stderr), c.Level)

	if !c.ToFile {
		xlog.ReplaceGlobal(xlog.New(consoleCore, xlog.AddCaller()))
		return
	}

	// 文件输出
	fileWriter := &lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxDays,
		LocalTime:  true,
		Compress:   c.Compress,
	}
	fileCore := xlog.NewCore(xlog.NewJSONEncoder(xlog.Llongfile), fileWriter, c.Level)

	xlog.ReplaceGlobal(xlog.New(xlog.NewTee(consoleCore, fileCore), xlog.AddCaller()))
}
