// File: transport/codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/momentics/orderline/api"
)

const (
	// MaxRecordSize bounds a whole record (header included). 4096 is the
	// Linux PIPE_BUF, below which pipe writes are atomic.
	MaxRecordSize = 4096

	headerSize = 4
)

// EncodeRecord appends one framed record for item to buf.
func EncodeRecord(buf *bytes.Buffer, item api.WorkItem) error {
	start := buf.Len()
	buf.Write(make([]byte, headerSize))

	enc := msgpack.GetEncoder()
	enc.Reset(buf)
	err := enc.Encode(&item)
	msgpack.PutEncoder(enc)
	if err != nil {
		buf.Truncate(start)
		return fmt.Errorf("encode record: %w", err)
	}

	size := buf.Len() - start
	if size > MaxRecordSize {
		buf.Truncate(start)
		return fmt.Errorf("%w: %d > %d bytes", api.ErrRecordTooLarge, size, MaxRecordSize)
	}
	binary.BigEndian.PutUint32(buf.Bytes()[start:start+headerSize], uint32(size-headerSize))
	return nil
}

// splitRecord returns the body of the first complete record in b and the
// number of bytes it occupies. n == 0 means more input is needed.
func splitRecord(b []byte) (body []byte, n int, err error) {
	if len(b) < headerSize {
		return nil, 0, nil
	}
	size := int(binary.BigEndian.Uint32(b[:headerSize]))
	if size+headerSize > MaxRecordSize {
		return nil, 0, api.Wrap(api.ErrCodeChannelRead, "corrupt record header", api.ErrRecordTooLarge).
			WithContext("size", size)
	}
	if len(b) < headerSize+size {
		return nil, 0, nil
	}
	return b[headerSize : headerSize+size], headerSize + size, nil
}

// decodeBody unmarshals a record body.
func decodeBody(body []byte) (api.WorkItem, error) {
	var item api.WorkItem
	if err := msgpack.Unmarshal(body, &item); err != nil {
		return api.WorkItem{}, api.Wrap(api.ErrCodeChannelRead, "decode record", err)
	}
	return item, nil
}
