// Package bytesource implements the seekable, chunk-buffered byte reader
// every other engine component reads through. A single implementation
// backs both file-based parsing and the in-memory views the
// ObjectStreamCache hands the Lexer for compressed objects: both an
// *os.File and a []byte slice satisfy io.ReaderAt, so one type serves
// both roles, matching the teacher's direct-construction style
// (internal/parser.NewReader, NewLexer) rather than introducing a
// factory hierarchy.
package bytesource

import (
	"bytes"
	"io"

	"github.com/coregx/streampdf/internal/perr"
)

// windowSize is the fixed-size read window the source refills from its
// underlying io.ReaderAt on each buffer miss.
const windowSize = 8 * 1024

// EOF is the sentinel ReadByte/Peek/PeekAt return at end-of-source.
const EOF = -1

// ByteSource is a seekable, chunk-buffered byte reader over any
// random-access source.
type ByteSource struct {
	r    io.ReaderAt
	size int64

	winOrigin int64  // absolute offset of buf[0]
	buf       []byte // currently loaded window
	cursor    int    // index into buf of the current read position

	ioErr error // non-EOF failure from the most recent fill, if any
}

// New wraps r (of the given total size) in a chunk-buffered ByteSource.
func New(r io.ReaderAt, size int64) *ByteSource {
	bs := &ByteSource{r: r, size: size}
	bs.fill(0)
	return bs
}

// NewMemory creates a ByteSource over an in-memory byte slice. Used by
// the ObjectStreamCache to hand the Lexer a read-only view of a decoded
// object stream with identical seek/read semantics to a file-backed
// source.
func NewMemory(data []byte) *ByteSource {
	return New(bytes.NewReader(data), int64(len(data)))
}

// Size returns the total number of bytes in the source.
func (bs *ByteSource) Size() int64 { return bs.size }

// fill loads the window starting at the given absolute offset.
func (bs *ByteSource) fill(origin int64) {
	if origin < 0 {
		origin = 0
	}
	if origin >= bs.size {
		bs.winOrigin = bs.size
		bs.buf = nil
		bs.cursor = 0
		return
	}
	n := windowSize
	if remaining := bs.size - origin; remaining < int64(n) {
		n = int(remaining)
	}
	buf := make([]byte, n)
	read, err := bs.r.ReadAt(buf, origin)
	// A short read at end-of-source still yields usable bytes; only a
	// non-EOF error is fatal to the window, and even then we keep
	// whatever was read so the caller can still make progress.
	if err != nil && err != io.EOF {
		bs.ioErr = err
	} else {
		bs.ioErr = nil
	}
	if err != nil && err != io.EOF && read == 0 {
		bs.winOrigin = origin
		bs.buf = nil
		bs.cursor = 0
		return
	}
	bs.winOrigin = origin
	bs.buf = buf[:read]
	bs.cursor = 0
}

// Err returns the most recent non-EOF failure from the underlying
// io.ReaderAt, if the last fill encountered one.
func (bs *ByteSource) Err() error {
	return bs.ioErr
}

// TruncatedOrIOError builds the appropriate terminal error for running
// out of bytes at offset: perr.IOError if the shortfall traces to a
// genuine read failure, perr.Truncated otherwise.
func (bs *ByteSource) TruncatedOrIOError(offset int64) error {
	if bs.ioErr != nil {
		return perr.NewIOError(bs.ioErr)
	}
	return perr.NewTruncated(offset)
}

// Position returns the current absolute offset.
func (bs *ByteSource) Position() int64 {
	return bs.winOrigin + int64(bs.cursor)
}

// Seek sets the absolute read position, refilling the window around it.
func (bs *ByteSource) Seek(offset int64) {
	if offset < 0 {
		offset = 0
	}
	// Fast path: offset already within the loaded window.
	if offset >= bs.winOrigin && offset < bs.winOrigin+int64(len(bs.buf)) {
		bs.cursor = int(offset - bs.winOrigin)
		return
	}
	bs.fill(offset)
}

// ensure makes sure at least one more byte is available at the cursor,
// refilling the window from the underlying source if the cursor has run
// off the end of the current buffer (but not off the end of the
// source).
func (bs *ByteSource) ensure() bool {
	if bs.cursor < len(bs.buf) {
		return true
	}
	next := bs.winOrigin + int64(len(bs.buf))
	if next >= bs.size {
		return false
	}
	bs.fill(next)
	return bs.cursor < len(bs.buf)
}

// ReadByte advances and returns the next byte, or EOF at end-of-source.
func (bs *ByteSource) ReadByte() int {
	if !bs.ensure() {
		return EOF
	}
	b := bs.buf[bs.cursor]
	bs.cursor++
	return int(b)
}

// Peek returns the next byte without advancing, or EOF at end-of-source.
func (bs *ByteSource) Peek() int {
	if !bs.ensure() {
		return EOF
	}
	return int(bs.buf[bs.cursor])
}

// PeekAt returns the byte delta positions ahead of the cursor without
// advancing, or EOF if that position is at or past end-of-source.
func (bs *ByteSource) PeekAt(delta int) int {
	pos := bs.Position() + int64(delta)
	if pos < 0 || pos >= bs.size {
		return EOF
	}
	saved := bs.Position()
	bs.Seek(pos)
	b := bs.Peek()
	bs.Seek(saved)
	return b
}

// ReadExact reads exactly n bytes, returning perr.Truncated if fewer are
// available before end-of-source (perr.IOError if the shortfall traces to
// a read failure of the underlying io.ReaderAt).
func (bs *ByteSource) ReadExact(n int) ([]byte, error) {
	start := bs.Position()
	out := make([]byte, 0, n)
	for len(out) < n {
		b := bs.ReadByte()
		if b == EOF {
			return nil, bs.TruncatedOrIOError(start)
		}
		out = append(out, byte(b))
	}
	return out, nil
}
