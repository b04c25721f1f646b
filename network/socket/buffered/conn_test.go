// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package buffered

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	net.Conn
	written []byte
	writes  int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.written = append(c.written, p...)
	c.writes++
	return len(p), nil
}

func (c *fakeConn) Close() error { return nil }

func TestConnWrapsSocket(t *testing.T) {
	fake := &fakeConn{}
	conn := NewConn(fake)

	// 无选项时使用默认缓冲和刷新频率，写入经包装落到底层连接
	assert.Equal(t, defaultBufferSize, conn.bufferSize)
	assert.NotNil(t, conn.limit)

	conn.Write([]byte("x"))
	conn.Flush()
	assert.Equal(t, []byte("x"), fake.written)
}

func TestConnWrite(t *testing.T) {
	fake := &fakeConn{}
	conn := NewConn(fake, FlushRate(1000), BufferSize(minBufferSize))

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}

	n, err := conn.Write(payload)
	assert.NoError(t, err)
	assert.Equal(t, len(payload), n)

	// 频率限制内的数据停留在缓冲，Flush 后全部写出
	conn.Write(payload)
	conn.Flush()
	assert.Equal(t, 0, conn.Buffered())
	assert.Equal(t, len(payload)*2, len(fake.written))
}

func TestConnLargeWrite(t *testing.T) {
	fake := &fakeConn{}
	conn := NewConn(fake, FlushRate(1), BufferSize(minBufferSize))

	// 大于缓冲的数据直接落到底层连接
	payload := make([]byte, minBufferSize*2)
	n, err := conn.Write(payload)
	assert.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.True(t, len(fake.written) >= minBufferSize)

	conn.Flush()
	assert.Equal(t, len(payload), len(fake.written))
}

func TestConnCloseFlushes(t *testing.T) {
	fake := &fakeConn{}
	conn := NewConn(fake, FlushRate(1000))

	conn.Write([]byte("tail"))
	// 等待限流窗口，保证数据停在缓冲中
	time.Sleep(time.Millisecond)
	conn.Close()
	assert.Equal(t, []byte("tail"), fake.written)
}
