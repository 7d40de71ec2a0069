// File: pool/buffers.go
// Author: momentics <momentics@gmail.com>
//
// Pooled scratch buffers for record encoding.

package pool

import "bytes"

// maxRetained caps the size of buffers kept for reuse.
const maxRetained = 64 << 10

// BufferPool hands out reset *bytes.Buffer values.
type BufferPool struct {
	*SyncPool[*bytes.Buffer]
}

// NewBufferPool creates a pool of buffers pre-grown to size bytes.
func NewBufferPool(size int) *BufferPool {
	sp := NewSyncPool(func() *bytes.Buffer {
		b := new(bytes.Buffer)
		b.Grow(size)
		return b
	}).WithReset(func(b *bytes.Buffer) bool {
		if b.Cap() > maxRetained {
			return false
		}
		b.Reset()
		return true
	})
	return &BufferPool{SyncPool: sp}
}
