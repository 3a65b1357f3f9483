// Package ioutil contains the fixed-capacity buffer records are rendered into.
//
// Anyone can use a bytes.Buffer to accumulate output, but it grows without
// bound. A Buffer never grows: a write which does not fit fails as a whole
// and leaves the buffer as it was, so a caller can never observe a record
// which was silently cut.
// As expected, a Buffer is not safe for concurrent use.
package ioutil

import "github.com/ugorji/go-catlog/errorutil"

// DefaultSize is the capacity of a record buffer when none is configured.
const DefaultSize = 512

// Buffer is a bounded, append-only byte buffer.
type Buffer struct {
	buf []byte
	n   int
}

// NewBuffer returns an empty Buffer holding at most size bytes.
// A size <= 0 means DefaultSize.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Buffer{buf: make([]byte, size)}
}

func (b *Buffer) tooLong(n int) error {
	return errorutil.Newf(errorutil.RecordTooLong, "%d bytes exceed record capacity %d (%d used)", n, len(b.buf), b.n)
}

// Write appends bs in full, or fails with errorutil.RecordTooLong and appends nothing.
func (b *Buffer) Write(bs []byte) (w int, err error) {
	if b.n+len(bs) > len(b.buf) {
		return 0, b.tooLong(len(bs))
	}
	w = copy(b.buf[b.n:], bs)
	b.n += w
	return
}

// WriteString is like Write, for a string.
func (b *Buffer) WriteString(s string) (w int, err error) {
	if b.n+len(s) > len(b.buf) {
		return 0, b.tooLong(len(s))
	}
	w = copy(b.buf[b.n:], s)
	b.n += w
	return
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	if b.n == len(b.buf) {
		return b.tooLong(1)
	}
	b.buf[b.n] = c
	b.n++
	return nil
}

// Pad appends n spaces.
func (b *Buffer) Pad(n int) error {
	if n <= 0 {
		return nil
	}
	if b.n+n > len(b.buf) {
		return b.tooLong(n)
	}
	for i := b.n; i < b.n+n; i++ {
		b.buf[i] = ' '
	}
	b.n += n
	return nil
}

// Bytes returns the written bytes. They are valid until the next Reset.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

func (b *Buffer) String() string { return string(b.buf[:b.n]) }

// Len returns the number of written bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the capacity of the buffer.
func (b *Buffer) Cap() int { return len(b.buf) }

// Reset empties the buffer, keeping its capacity.
func (b *Buffer) Reset() { b.n = 0 }
