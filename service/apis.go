// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/framepipe/config"
	"github.com/cnotch/framepipe/pipeline"
	"github.com/cnotch/framepipe/stats"
)

var buffers = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 1024*2))
	},
}

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		// 系统信息类API
		apirouter.GET("/api/v1/server", s.onGetServerInfo),
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),

		// 帧池API
		apirouter.GET("/api/v1/pool", s.onGetPool),
		apirouter.POST("/api/v1/pool", s.onSetPool),

		// 模块管理API
		apirouter.GET("/api/v1/modules", s.onListModules),
		apirouter.GET("/api/v1/modules/{handle=*}", s.onGetModule),
		apirouter.POST("/api/v1/modules/{handle=*}:start", s.onStartModule),
		apirouter.POST("/api/v1/modules/{handle=*}:stop", s.onStopModule),
		apirouter.DELETE("/api/v1/modules/{handle=*}", s.onCloseModule),
	)

	// api add to mux
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		api.ServeHTTP(w, r)
	})
}

// 获取服务信息
func (s *Service) onGetServerInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type server struct {
		Vendor   string `json:"vendor"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		OS       string `json:"os"`
		Arch     string `json:"arch"`
		StartOn  string `json:"start_on"`
		Duration string `json:"duration"`
	}
	srv := server{
		Vendor:   config.Vendor,
		Name:     config.Name,
		Version:  config.Version,
		OS:       strings.Title(runtime.GOOS),
		Arch:     strings.ToUpper(runtime.GOARCH),
		StartOn:  stats.StartingTime.Format(time.RFC3339Nano),
		Duration: time.Now().Sub(stats.StartingTime).String(),
	}

	if err := jsonTo(w, &srv); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 获取运行时信息
func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	const extraKey = "extra"

	type pool struct {
		Capacity int `json:"capacity"`
		Count    int `json:"count"`
		InUse    int `json:"inuse"`
	}
	type rtinfo struct {
		On      string            `json:"on"`
		Proc    stats.Proc        `json:"proc"`
		Modules int               `json:"modules"`
		Pool    pool              `json:"pool"`
		Flow    stats.FlowSample  `json:"flow"`
		Ctrl    stats.ConnsSample `json:"ctrl"`
		Extra   *stats.Runtime    `json:"extra,omitempty"`
	}

	p := s.runtime.Pool()
	rt := rtinfo{
		On:      time.Now().Format(time.RFC3339Nano),
		Proc:    stats.MeasureRuntime(),
		Modules: s.runtime.Count(),
		Pool:    pool{Capacity: p.Capacity(), Count: p.Count(), InUse: p.InUse()},
		Flow:    s.runtime.Flow().GetSample(),
		Ctrl:    stats.CtrlConns.GetSample(),
	}

	params := r.URL.Query()
	if strings.TrimSpace(params.Get(extraKey)) == "1" {
		rt.Extra = stats.MeasureFullRuntime()
	}

	if err := jsonTo(w, &rt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 获取帧池状态
func (s *Service) onGetPool(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type pool struct {
		Capacity int `json:"capacity"`
		Count    int `json:"count"`
		InUse    int `json:"inuse"`
	}

	p := s.runtime.Pool()
	if err := jsonTo(w, &pool{
		Capacity: p.Capacity(),
		Count:    p.Count(),
		InUse:    p.InUse(),
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// 调整帧池容量 ?capacity=
func (s *Service) onSetPool(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	capacity, err := strconv.Atoi(r.URL.Query().Get("capacity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.runtime.Pool().SetCapacity(capacity); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Service) onListModules(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type moduleInfos struct {
		Total   int                    `json:"total"`
		Modules []*pipeline.ModuleInfo `json:"modules,omitempty"`
	}

	infos := s.runtime.Infos()
	list := &moduleInfos{
		Total:   len(infos),
		Modules: infos,
	}

	if err := jsonTo(w, list); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onGetModule(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ctrl, ok := s.moduleParam(w, r, pathParams)
	if !ok {
		return
	}

	if err := jsonTo(w, ctrl.Info()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onStartModule(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ctrl, ok := s.moduleParam(w, r, pathParams)
	if !ok {
		return
	}

	if err := ctrl.Start(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Service) onStopModule(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	ctrl, ok := s.moduleParam(w, r, pathParams)
	if !ok {
		return
	}

	if err := ctrl.Stop(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Service) onCloseModule(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	handle, err := strconv.Atoi(pathParams.ByName("handle"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.runtime.CloseModule(pipeline.Handle(handle)); err != nil {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// moduleParam 解析路径中的模块句柄并取控制器
func (s *Service) moduleParam(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) (*pipeline.Controller, bool) {
	handle, err := strconv.Atoi(pathParams.ByName("handle"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	ctrl, err := s.runtime.Module(pipeline.Handle(handle))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	return ctrl, true
}

func jsonTo(w io.Writer, o interface{}) error {
	formatted := buffers.Get().(*bytes.Buffer)
	formatted.Reset()
	defer buffers.Put(formatted)

	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	if err := json.Indent(formatted, body, "", "\t"); err != nil {
		return err
	}

	if _, err := w.Write(formatted.Bytes()); err != nil {
		return err
	}
	return nil
}
