package stream

import (
	"context"
	"io"

	"github.com/zzenonn/zingest/internal/throttle"
)

// ThrottledReader debits the shared throttle for the full requested length
// before each read, so short reads are capped as well.
type ThrottledReader struct {
	ctx    context.Context
	r      io.Reader
	t      *throttle.Throttle
	closer closeOnce
}

func NewThrottledReader(ctx context.Context, r io.Reader, t *throttle.Throttle) *ThrottledReader {
	return &ThrottledReader{ctx: ctx, r: r, t: t}
}

func (tr *ThrottledReader) Read(p []byte) (int, error) {
	if tr.t != nil {
		if err := tr.t.Acquire(tr.ctx, len(p)); err != nil {
			return 0, err
		}
	}
	return tr.r.Read(p)
}

func (tr *ThrottledReader) Seek(offset int64, whence int) (int64, error) {
	return seek(tr.r, offset, whence)
}

func (tr *ThrottledReader) Close() error {
	return tr.closer.close(tr.r)
}
