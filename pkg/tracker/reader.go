// ABOUTME: Bounds-checked little endian byte reader for S3M files
// ABOUTME: Records the first out-of-range access instead of panicking
package tracker

import (
	"encoding/binary"
	"fmt"
)

type reader struct {
	data []byte
	off  int
	err  error
}

func newReader(data []byte) *reader {
	return &reader{data: data}
}

func (r *reader) seek(off int) {
	r.off = off
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: read of %d bytes at offset %d past end (%d)", ErrParse, n, r.off, len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16le() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32le() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) name(n int) string {
	b := r.bytes(n)
	if b == nil {
		return ""
	}
	return cleanName(b)
}

// available returns how many bytes remain from off, never negative
func (r *reader) available(off int) int {
	if off < 0 || off >= len(r.data) {
		return 0
	}
	return len(r.data) - off
}
