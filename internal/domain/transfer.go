package domain

import (
	"time"
)

// Counter exposes a monotonically non-decreasing count of bytes read.
type Counter interface {
	Count() int64
}

// Transfer - representation of one in-flight file upload
type Transfer struct {
	ID        string
	Filename  string
	FileSize  int64 // Captured at start; never refreshed
	StartTime time.Time

	counter  Counter
	reported int64 // Written only under the reporter's lock
}

// NewTransfer creates a transfer whose progress is read from counter.
func NewTransfer(id, filename string, fileSize int64, start time.Time, counter Counter) *Transfer {
	return &Transfer{
		ID:        id,
		Filename:  filename,
		FileSize:  fileSize,
		StartTime: start,
		counter:   counter,
	}
}

// BytesRead returns the cumulative number of bytes read from the source.
func (t *Transfer) BytesRead() int64 {
	if t.counter == nil {
		return 0
	}
	return t.counter.Count()
}

// MarkReported records the current count as reported and returns the
// previously reported count along with the current one.
func (t *Transfer) MarkReported() (previous, current int64) {
	current = t.BytesRead()
	previous = t.reported
	t.reported = current
	return previous, current
}

// PercentComplete returns progress against the captured file size. A zero-size
// file is always complete.
func (t *Transfer) PercentComplete() float64 {
	return PercentOf(t.BytesRead(), t.FileSize)
}

// PercentOf returns count as a percentage of size, treating an empty size as complete.
func PercentOf(count, size int64) float64 {
	if size <= 0 {
		return 100.0
	}
	return float64(count) / float64(size) * 100.0
}

// Before orders transfers by start time, then by id.
func (t *Transfer) Before(o *Transfer) bool {
	if !t.StartTime.Equal(o.StartTime) {
		return t.StartTime.Before(o.StartTime)
	}
	return t.ID < o.ID
}
