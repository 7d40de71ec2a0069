// Package pool
// Author: momentics <momentics@gmail.com>
//
// Object pooling for the delivery path. Encoders borrow scratch buffers from a
// BufferPool instead of allocating one per record.
package pool
