// Package xbufio provides a pooled growable byte buffer for the
// connection read loop, in the shape of the overlord lib/bufio package
// referenced (but not vendored) by the teacher's proto/batch.go, where
// bufio.Get(defaultRespBufSize) hands a *Buffer out of a sync.Pool.
package xbufio

import "sync"

const defaultSize = 1024

var pool = sync.Pool{
	New: func() interface{} {
		return &Buffer{buf: make([]byte, 0, defaultSize)}
	},
}

// Buffer is a reusable byte accumulator for residue bytes between reads.
type Buffer struct {
	buf []byte
}

// Get returns a Buffer from the pool sized to at least n bytes of capacity.
func Get(n int) *Buffer {
	b := pool.Get().(*Buffer)
	if cap(b.buf) < n {
		b.buf = make([]byte, 0, n)
	}
	return b
}

// Put returns b to the pool after resetting it.
func Put(b *Buffer) {
	b.Reset()
	pool.Put(b)
}

// Write appends p to the buffer, growing it as needed.
func (b *Buffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// Bytes returns the buffer's current contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Discard drops the first n bytes already consumed by the caller.
func (b *Buffer) Discard(n int) {
	if n <= 0 {
		return
	}
	remaining := copy(b.buf, b.buf[n:])
	b.buf = b.buf[:remaining]
}

// Reset empties the buffer while keeping its backing array.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the number of bytes currently buffered.
func (b *Buffer) Len() int {
	return len(b.buf)
}
