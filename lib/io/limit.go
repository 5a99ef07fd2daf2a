package iolib

import "io"

// LimitReader returns a reader that expects exactly n bytes from r.
// Exhausting the limit reads as a clean [io.EOF]; the source ending
// while bytes are still owed is reported as [io.ErrUnexpectedEOF], so
// a body truncated below its declared length never passes for a
// complete one.
func LimitReader(r io.Reader, n uint) io.Reader { return &LimitedReader{r, n} }

type LimitedReader struct {
	R io.Reader // underlying reader
	N uint      // bytes still owed
}

func (l *LimitedReader) Read(p []byte) (n int, err error) {
	if l.N == 0 {
		return 0, io.EOF
	}
	if uint(len(p)) > l.N {
		p = p[:l.N]
	}
	n, err = l.R.Read(p)
	l.N -= uint(n)

	if err == io.EOF && l.N > 0 {
		err = io.ErrUnexpectedEOF
	}
	return
}
