package domain

import (
	"sync/atomic"
	"time"
)

// ProcessTotals accumulates the bytes copied by every finished transfer over
// the lifetime of the process.
type ProcessTotals struct {
	bytes atomic.Int64
	start time.Time
}

func NewProcessTotals(start time.Time) *ProcessTotals {
	return &ProcessTotals{start: start}
}

// Add folds a finished transfer's byte count into the totals.
func (p *ProcessTotals) Add(n int64) {
	p.bytes.Add(n)
}

func (p *ProcessTotals) Bytes() int64 {
	return p.bytes.Load()
}

func (p *ProcessTotals) StartTime() time.Time {
	return p.start
}

func (p *ProcessTotals) Elapsed(now time.Time) time.Duration {
	return now.Sub(p.start)
}

// RatePerSecond returns the lifetime average in bytes per second.
func (p *ProcessTotals) RatePerSecond(now time.Time) float64 {
	return RatePerSecond(p.Bytes(), p.Elapsed(now))
}

// RatePerSecond divides count by elapsed seconds, returning 0 when no time
// has elapsed.
func RatePerSecond(count int64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(count) / seconds
}
