// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/cnotch/framepipe/config"
	"github.com/cnotch/framepipe/pipeline"
	"github.com/cnotch/framepipe/service"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
)

func main() {
	// 初始化配置
	config.InitConfig()
	// 初始化全局计划任务
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	// 初始化管道运行时
	runtime := pipeline.NewRuntime(
		pipeline.WithPoolCapacity(config.PoolCapacity()))

	// 按配置创建演示模块
	if preconfig := config.DemoModule(); preconfig != "" {
		h, err := runtime.CreateModule(0, nil, preconfig)
		if err != nil {
			xlog.L().Panic(err.Error())
		}
		if err := runtime.StartModule(h); err != nil {
			xlog.L().Panic(err.Error())
		}
	}

	// Start new service
	svc, err := service.NewService(context.Background(), xlog.L(), runtime)
	if err != nil {
		xlog.L().Panic(err.Error())
	}

	// Listen and serve
	svc.Listen()
}
