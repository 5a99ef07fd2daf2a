package engine

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "httpwire/util/bytes"
	"httpwire/util/rule"

	"github.com/pkg/errors"
)

// chunkedReader converts a chunked response body into a plain byte
// stream. Chunk extensions are ignored; trailer fields are consumed
// and discarded.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-7.1
type chunkedReader struct {
	br     *bufio.Reader
	remain uint64 // bytes left in the current chunk
	done   bool
}

var _ io.Reader = (*chunkedReader)(nil)

func newChunkedReader(br *bufio.Reader) *chunkedReader {
	return &chunkedReader{br: br}
}

func (cr *chunkedReader) Read(p []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.remain == 0 {
		size, err := cr.decodeChunkSize()
		if err != nil {
			return 0, errors.Wrap(err, "decoding chunk size")
		}

		if size == 0 {
			// Last chunk.
			if err := cr.discardTrailers(); err != nil {
				return 0, errors.Wrap(err, "reading trailer section")
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = size
	}

	if uint64(len(p)) > cr.remain {
		p = p[:cr.remain]
	}

	n, err := cr.br.Read(p)
	if err != nil {
		return n, errors.Wrap(err, "reading chunk data")
	}
	cr.remain -= uint64(n)

	if cr.remain == 0 {
		if err := cr.consumeCRLF(); err != nil {
			return n, errors.Wrap(err, "reading chunk delimiter")
		}
	}

	return n, nil
}

func (cr *chunkedReader) decodeChunkSize() (uint64, error) {
	line, err := readLine(cr.br)
	if err != nil {
		return 0, err
	}

	// Drop any chunk extensions.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimRight(sizeRaw, " \t")

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return 0, errors.Errorf("chunk size is not valid hex: %q", sizeRaw)
	}

	return size, nil
}

func (cr *chunkedReader) discardTrailers() error {
	for {
		line, err := readLine(cr.br)
		if err != nil {
			return err
		}
		if len(line) == 0 {
			return nil
		}
	}
}

func (cr *chunkedReader) consumeCRLF() error {
	dump := make([]byte, 2)
	if _, err := io.ReadFull(cr.br, dump); err != nil {
		return err
	}
	if !bytes.Equal(dump, rule.CRLF) {
		return errors.New("CRLF delimiter not found")
	}
	return nil
}

// readLine reads one CRLF-terminated line and returns it without the
// terminator.
func readLine(br *bufio.Reader) ([]byte, error) {
	b, err := bytesutil.ReadUntil(br, rule.CRLF)
	if err != nil {
		return nil, err
	}
	return b[:len(b)-len(rule.CRLF)], nil
}

// chunkedWriter frames outbound body bytes as chunks. Close writes the
// last-chunk marker and the empty trailer section.
type chunkedWriter struct {
	w io.Writer
}

var _ io.WriteCloser = (*chunkedWriter)(nil)

func newChunkedWriter(w io.Writer) *chunkedWriter {
	return &chunkedWriter{w: w}
}

func (cw *chunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		// A zero-length chunk would mean EOF. Ignore it.
		return 0, nil
	}

	head := strconv.FormatUint(uint64(len(p)), 16)
	if _, err := cw.w.Write(append([]byte(head), rule.CRLF...)); err != nil {
		return 0, errors.Wrap(err, "writing chunk header")
	}
	if _, err := cw.w.Write(p); err != nil {
		return 0, errors.Wrap(err, "writing chunk data")
	}
	if _, err := cw.w.Write(rule.CRLF); err != nil {
		return 0, errors.Wrap(err, "writing chunk delimiter")
	}

	return len(p), nil
}

func (cw *chunkedWriter) Close() error {
	if _, err := cw.w.Write([]byte("0\r\n\r\n")); err != nil {
		return errors.Wrap(err, "writing last chunk")
	}
	return nil
}
