// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/cnotch/framepipe/utils/scan"
	"github.com/cnotch/xlog"
)

// 配置段的哨兵 key：in_type 开启一个输入 Pin 段，out_type 开启一个输出 Pin 段
const (
	inTypeKey  = "in_type"
	outTypeKey = "out_type"
)

// preconfig 预配置串的解析结果。
// 各段保持 `key=value,` 逗号拼接、带结尾逗号的原始形态，供 Pin 再解析。
type preconfig struct {
	module  string
	inputs  []string
	outputs []string
}

// parsePreconfig 解析顺序敏感的预配置串。
// 首个哨兵 key 之前的 token 属于模块段；每个 in_type/out_type token
// 开启一个新的 Pin 段，其后的 token 归属该段直到下一个哨兵。
// 非 key=value 形式的 token 跳过并告警；空 token 忽略。
func parsePreconfig(config string) (*preconfig, error) {
	ret := &preconfig{}
	current := &ret.module

	advance, token, continueScan := scan.Comma.Scan(config)
	for {
		if token == "" {
			if !continueScan {
				break
			}
			advance, token, continueScan = scan.Comma.Scan(advance)
			continue
		}

		key, _, ok := scan.EqualPair.Scan(token)
		if !ok {
			xlog.Warnf("invalid parameter format: '%s' is not in format '<param>=<value>'", token)
			if !continueScan {
				break
			}
			advance, token, continueScan = scan.Comma.Scan(advance)
			continue
		}

		// 配置串中输入和输出 Pin 的参数是交错排列的
		switch key {
		case outTypeKey:
			ret.outputs = append(ret.outputs, "")
			current = &ret.outputs[len(ret.outputs)-1]
		case inTypeKey:
			ret.inputs = append(ret.inputs, "")
			current = &ret.inputs[len(ret.inputs)-1]
		}

		if current == nil {
			return nil, ErrBadConfig
		}
		*current += token + ","

		if !continueScan {
			break
		}
		advance, token, continueScan = scan.Comma.Scan(advance)
	}

	return ret, nil
}

// parseParams 把 Pin 段的 `key=value,` 串解析成参数表。
// 重复的 key 以后者为准；非 key=value 形式的 token 跳过并告警。
func parseParams(section string) map[string]string {
	params := make(map[string]string, 4)

	advance, token, continueScan := scan.Comma.Scan(section)
	for {
		if token != "" {
			key, value, ok := scan.EqualPair.Scan(token)
			if ok {
				params[key] = value
			} else {
				xlog.Warnf("invalid parameter format: '%s' is not in format '<param>=<value>'", token)
			}
		}

		if !continueScan {
			break
		}
		advance, token, continueScan = scan.Comma.Scan(advance)
	}

	return params
}
