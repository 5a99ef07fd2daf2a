package iolib

import (
	"io"

	"github.com/pkg/errors"
)

// UnknownLength is the length reported by streams whose total size
// cannot be determined upfront (e.g. chunked response bodies).
const UnknownLength int64 = -1

// Stream is a readable sequence of bytes with a possibly-unknown total
// length. It is the body abstraction on both sides of an exchange:
// outbound request bodies and received response bodies.
type Stream interface {
	io.Reader

	// Length returns the total stream size in bytes,
	// or [UnknownLength] if it cannot be known upfront.
	Length() int64

	// Rewind moves the read position back to the start of the stream.
	Rewind() error
}

// MemoryStream is a [Stream] over a fully-buffered byte slice.
type MemoryStream struct {
	data []byte
	pos  int
}

var _ Stream = (*MemoryStream)(nil)

// NewMemoryStream wraps data without copying it.
// The stream borrows data; the caller must not mutate it while reading.
func NewMemoryStream(data []byte) *MemoryStream {
	return &MemoryStream{data: data}
}

func (ms *MemoryStream) Read(p []byte) (int, error) {
	if ms.pos >= len(ms.data) {
		return 0, io.EOF
	}
	n := copy(p, ms.data[ms.pos:])
	ms.pos += n
	return n, nil
}

func (ms *MemoryStream) Length() int64 { return int64(len(ms.data)) }

func (ms *MemoryStream) Rewind() error {
	ms.pos = 0
	return nil
}

// ReaderStream adapts an [io.Reader] into a [Stream] with a declared
// length. Rewind only works when the underlying reader is an
// [io.Seeker] (e.g. [os.File], [bytes.Reader]).
type ReaderStream struct {
	r      io.Reader
	length int64
}

var _ Stream = (*ReaderStream)(nil)

// NewReaderStream declares r to be length bytes long.
// Pass [UnknownLength] when the size is not known upfront.
func NewReaderStream(r io.Reader, length int64) *ReaderStream {
	return &ReaderStream{r: r, length: length}
}

func (rs *ReaderStream) Read(p []byte) (int, error) { return rs.r.Read(p) }

func (rs *ReaderStream) Length() int64 { return rs.length }

func (rs *ReaderStream) Rewind() error {
	seeker, ok := rs.r.(io.Seeker)
	if !ok {
		return errors.New("underlying reader is not seekable")
	}

	if _, err := seeker.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking to start")
	}
	return nil
}

// ReadToEnd rewinds s and reads it fully into memory.
func ReadToEnd(s Stream) ([]byte, error) {
	if err := s.Rewind(); err != nil {
		return nil, errors.Wrap(err, "rewinding stream")
	}

	b, err := io.ReadAll(s)
	if err != nil {
		return nil, errors.Wrap(err, "reading stream to end")
	}

	return b, nil
}
