// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"testing"
)

func TestFlow(t *testing.T) {
	totalFlow := NewFlow()
	sub1 := NewChildFlow(totalFlow)
	sub2 := NewChildFlow(totalFlow)

	t.Run("", func(t *testing.T) {
		sub1.AddIn(100)
		sample := sub1.GetSample()
		if sample.InBytes != 100 {
			t.Error("InBytes not is 100")
		}
		if sample.InFrames != 1 {
			t.Error("InFrames not is 1")
		}

		sub2.AddIn(200)
		sub2.AddOut(200)
		sample = totalFlow.GetSample()
		if sample.InBytes != 300 {
			t.Error("InBytes not is 300")
		}
		if sample.InFrames != 2 {
			t.Error("InFrames not is 2")
		}
		if sample.OutFrames != 1 {
			t.Error("OutFrames not is 1")
		}
	})
}
