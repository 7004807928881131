package stream

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zerrors "github.com/zzenonn/zingest/internal/errors"
	"github.com/zzenonn/zingest/internal/throttle"
)

// trackingSource is a seekable source that records Close calls.
type trackingSource struct {
	*bytes.Reader
	closes int
}

func (s *trackingSource) Close() error {
	s.closes++
	return nil
}

func newTrackingSource(data []byte) *trackingSource {
	return &trackingSource{Reader: bytes.NewReader(data)}
}

func TestMeteredReader_CountsBytesReturned(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	r := NewMeteredReader(context.Background(), newTrackingSource(data), throttle.New(0), 0)

	buf := make([]byte, 4096)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Equal(t, int64(1000), r.Count())

	n, err = r.Read(buf)
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(1000), r.Count())
}

func TestMeteredReader_CountIsMonotonic(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 512)
	r := NewMeteredReader(context.Background(), newTrackingSource(data), throttle.New(0), 64)

	var last int64
	buf := make([]byte, 37)
	for {
		_, err := r.Read(buf)
		assert.GreaterOrEqual(t, r.Count(), last)
		last = r.Count()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	_, err := r.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, last, r.Count())

	_, err = r.Read(buf)
	require.NoError(t, err)
	assert.Greater(t, r.Count(), last)
}

func TestMeteredReader_SeekThroughBuffer(t *testing.T) {
	data := []byte("0123456789abcdefghij")
	r := NewMeteredReader(context.Background(), newTrackingSource(data), throttle.New(0), 16)

	buf := make([]byte, 4)
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf))

	pos, err := r.Seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "6789", string(buf))

	pos, err = r.Seek(-3, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(17), pos)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hij", string(rest))
}

func TestMeteredReader_NotSeekable(t *testing.T) {
	// MultiReader hides the Seek method of the strings.Reader.
	r := NewMeteredReader(context.Background(), io.MultiReader(strings.NewReader("abc")), throttle.New(0), 0)

	_, err := r.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, zerrors.ErrNotSeekable)
}

func TestMeteredReader_ClosesUnderlyingOnce(t *testing.T) {
	src := newTrackingSource([]byte("abc"))
	r := NewMeteredReader(context.Background(), src, throttle.New(0), 0)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, src.closes)
}

func TestMeteredReader_Observer(t *testing.T) {
	r := NewMeteredReader(context.Background(), newTrackingSource(make([]byte, 300)), throttle.New(0), 0)

	var observed int64
	r.Observe(func(n int64) { observed += n })

	_, err := io.Copy(io.Discard, r)
	require.NoError(t, err)
	assert.Equal(t, int64(300), observed)
}

func TestThrottledReader_LimitsRequestedLength(t *testing.T) {
	// 100 B/s with an empty bucket: a 50 byte request waits about half a second
	// even though the source only has 5 bytes.
	r := NewThrottledReader(context.Background(), strings.NewReader("hello"), throttle.New(100))

	start := time.Now()
	n, err := r.Read(make([]byte, 50))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestThrottledReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewThrottledReader(ctx, strings.NewReader("hello"), throttle.New(1))
	n, err := r.Read(make([]byte, 5))
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}
