// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scan

import (
	"testing"
)

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		name       string
		args       string
		wantTokens []string
	}{
		{
			"单个token",
			"port=1",
			[]string{"port=1"},
		},
		{
			"多个token",
			"port=1,in_type=rtp, fmt=video",
			[]string{"port=1", "in_type=rtp", "fmt=video"},
		},
		{
			"空token保留",
			"a,,b",
			[]string{"a", "", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			advance, token, continueScan := Comma.Scan(tt.args)
			tokens = append(tokens, token)
			for continueScan {
				advance, token, continueScan = Comma.Scan(advance)
				tokens = append(tokens, token)
			}

			if len(tokens) != len(tt.wantTokens) {
				t.Fatalf("Scanner.Scan() tokens = %v, want %v", tokens, tt.wantTokens)
			}
			for i, token := range tokens {
				if token != tt.wantTokens[i] {
					t.Errorf("Scanner.Scan() token[%d] = %v, want %v", i, token, tt.wantTokens[i])
				}
			}
		})
	}
}

func TestPair_Scan(t *testing.T) {
	tests := []struct {
		name      string
		args      string
		wantKey   string
		wantValue string
		wantOk    bool
	}{
		{
			"常规",
			"in_type=rtp",
			"in_type",
			"rtp",
			true,
		},
		{
			"带空格",
			" \tport=  \"5004\"\t",
			"port",
			"5004",
			true,
		},
		{
			"无分割符",
			"badtoken",
			"badtoken",
			"",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotValue, gotOk := EqualPair.Scan(tt.args)
			if gotKey != tt.wantKey {
				t.Errorf("Pair.Scan() gotKey = %v, want %v", gotKey, tt.wantKey)
			}
			if gotValue != tt.wantValue {
				t.Errorf("Pair.Scan() gotValue = %v, want %v", gotValue, tt.wantValue)
			}
			if gotOk != tt.wantOk {
				t.Errorf("Pair.Scan() gotOk = %v, want %v", gotOk, tt.wantOk)
			}
		})
	}
}

func Benchmark_Pair_Scan(b *testing.B) {
	s := `sampling="YCbCr-4:2:2"`
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			key, value, ok := EqualPair.Scan(s)
			_ = key
			_ = value
			_ = ok
		}
	})
}
