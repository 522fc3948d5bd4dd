package formats

import (
	"fmt"

	"github.com/kkteam/bt3-animation-worker/pkg/encoding"
)

// cursor decodes fields at absolute offsets and keeps the first failure.
type cursor struct {
	data []byte
	err  error
}

func (c *cursor) slice(off, n int) []byte {
	if c.err != nil {
		return nil
	}
	if off < 0 || off+n > len(c.data) {
		c.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, off, len(c.data))
		return nil
	}
	return c.data[off : off+n]
}

func (c *cursor) u16(off int) uint16 {
	b := c.slice(off, 2)
	if b == nil {
		return 0
	}
	v, err := encoding.U16(b)
	if err != nil {
		c.err = err
	}
	return v
}

func (c *cursor) u32(off int) uint32 {
	b := c.slice(off, 4)
	if b == nil {
		return 0
	}
	v, err := encoding.U32(b)
	if err != nil {
		c.err = err
	}
	return v
}

func (c *cursor) f32(off int) float32 {
	b := c.slice(off, 4)
	if b == nil {
		return 0
	}
	v, err := encoding.F32(b)
	if err != nil {
		c.err = err
	}
	return v
}

func (c *cursor) blob(off int) RotationBlob {
	var r RotationBlob
	if b := c.slice(off, len(r)); b != nil {
		copy(r[:], b)
	}
	return r
}

// writer appends little-endian fields and keeps the first failure.
type writer struct {
	buf []byte
	err error
}

func (w *writer) u16(v uint64) {
	if w.err == nil {
		w.buf, w.err = encoding.AppendU16(w.buf, v)
	}
}

func (w *writer) u32(v uint64) {
	if w.err == nil {
		w.buf, w.err = encoding.AppendU32(w.buf, v)
	}
}

func (w *writer) f32(v float32) {
	if w.err == nil {
		w.buf = encoding.AppendF32(w.buf, v)
	}
}

func (w *writer) bytes(b []byte) {
	if w.err == nil {
		w.buf = append(w.buf, b...)
	}
}
