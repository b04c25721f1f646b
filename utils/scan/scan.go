// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// 预定义扫描器
var (
	// Comma 逗号分割
	Comma = NewScanner(',', unicode.IsSpace)

	// EqualPair 扫描 K=V 形式的 Pair 字串
	EqualPair = NewPair('=',
		func(r rune) bool {
			return unicode.IsSpace(r) || r == '"'
		})
)

// Scanner 分割扫描器
type Scanner struct {
	delim    rune
	delimLen int
	trimFunc func(r rune) bool
}

// NewScanner 创建扫描器
func NewScanner(delim rune, trimFunc func(r rune) bool) Scanner {
	scanner := Scanner{
		delim:    delim,
		trimFunc: trimFunc,
	}
	scanner.delimLen = utf8.RuneLen(delim)
	if trimFunc == nil {
		scanner.trimFunc = func(r rune) bool { return false }
	}
	return scanner
}

// Scan 扫描字串，返回剩余串、当前 token 和是否可继续扫描
func (s Scanner) Scan(str string) (advance, token string, continueScan bool) {
	i := strings.IndexRune(str, s.delim)
	if i < 0 {
		return "", strings.TrimFunc(str, s.trimFunc), false
	}

	return strings.TrimFunc(str[i+s.delimLen:], s.trimFunc), strings.TrimFunc(str[:i], s.trimFunc), true
}

// Pair 从字串扫描 Key Value 值
type Pair struct {
	delim    rune              // Key Value 间的分割
	delimLen int               // 分割符长度
	trimFunc func(r rune) bool // 返回前 Trim 使用的函数
}

// NewPair 新建 Pair 扫描器
func NewPair(delim rune, trimFunc func(r rune) bool) Pair {
	pair := Pair{
		delim:    delim,
		trimFunc: trimFunc,
	}
	pair.delimLen = utf8.RuneLen(delim)
	if trimFunc == nil {
		pair.trimFunc = func(r rune) bool { return false }
	}
	return pair
}

// Scan 提取 K V
func (p Pair) Scan(s string) (key, value string, found bool) {
	if p.delim == 0 {
		return s, "", false
	}

	i := strings.IndexRune(s, p.delim)
	if i < 0 {
		return s, "", false
	}

	return strings.TrimFunc(s[:i], p.trimFunc),
		strings.TrimFunc(s[i+p.delimLen:], p.trimFunc), true
}
