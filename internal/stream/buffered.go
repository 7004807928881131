package stream

import (
	"bufio"
	"io"
)

type bufferedReader struct {
	raw    io.Reader
	br     *bufio.Reader
	closer closeOnce
}

func newBufferedReader(raw io.Reader, size int) *bufferedReader {
	return &bufferedReader{raw: raw, br: bufio.NewReaderSize(raw, size)}
}

func (b *bufferedReader) Read(p []byte) (int, error) {
	return b.br.Read(p)
}

// Seek repositions the raw source and drops anything buffered. Relative seeks
// account for bytes already buffered but not yet returned.
func (b *bufferedReader) Seek(offset int64, whence int) (int64, error) {
	if whence == io.SeekCurrent {
		offset -= int64(b.br.Buffered())
	}
	pos, err := seek(b.raw, offset, whence)
	if err != nil {
		return pos, err
	}
	b.br.Reset(b.raw)
	return pos, nil
}

func (b *bufferedReader) Close() error {
	return b.closer.close(b.raw)
}
