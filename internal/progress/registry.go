// Package progress tracks in-flight transfers and reports their throughput.
//
// The Registry is written by upload workers (Put on start, Remove on end) and
// read by the Reporter on its own timer. Rate bookkeeping for each transfer is
// serialized by the Registry so a final status line and a periodic tick never
// interleave their interval deltas.
package progress

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zingest/internal/domain"
)

// Status is one transfer's progress as of a report.
type Status struct {
	ID              string
	Filename        string
	LastRate        float64 // Bytes per second over the last interval
	CumulativeRate  float64 // Bytes per second since the transfer started
	Elapsed         time.Duration
	CompletedBytes  int64
	TotalBytes      int64
	PercentComplete float64
}

// Registry is a concurrent map of transfer id to in-flight transfer.
type Registry struct {
	mu      sync.RWMutex
	actives map[string]*domain.Transfer

	reportMu sync.Mutex
	interval time.Duration
	totals   *domain.ProcessTotals
	now      func() time.Time
}

// NewRegistry creates a registry that folds finished transfers into totals.
// interval is the reporting period used to turn byte deltas into rates.
func NewRegistry(totals *domain.ProcessTotals, interval time.Duration) *Registry {
	return &Registry{
		actives:  make(map[string]*domain.Transfer),
		interval: interval,
		totals:   totals,
		now:      time.Now,
	}
}

// Put registers a transfer that is about to start reading.
func (r *Registry) Put(t *domain.Transfer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actives[t.ID] = t
}

// Remove unregisters a transfer, logs its final status and folds its byte
// count into the process totals. Removing an unknown or already removed id
// does nothing and returns false.
func (r *Registry) Remove(id string) (*domain.Transfer, bool) {
	r.mu.Lock()
	t, ok := r.actives[id]
	delete(r.actives, id)
	r.mu.Unlock()

	if !ok {
		return nil, false
	}

	log.Infof("Removing status entry %s", id)
	logStatus(r.status(r.now(), t))

	r.totals.Add(t.BytesRead())
	return t, true
}

// Len returns the number of in-flight transfers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actives)
}

// Snapshot returns the in-flight transfers ordered by start time, then id.
func (r *Registry) Snapshot() []*domain.Transfer {
	r.mu.RLock()
	transfers := make([]*domain.Transfer, 0, len(r.actives))
	for _, t := range r.actives {
		transfers = append(transfers, t)
	}
	r.mu.RUnlock()

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].Before(transfers[j])
	})
	return transfers
}

// Totals returns the process-wide totals this registry folds into.
func (r *Registry) Totals() *domain.ProcessTotals {
	return r.totals
}

// status computes rates for t and advances its last reported count.
func (r *Registry) status(now time.Time, t *domain.Transfer) Status {
	r.reportMu.Lock()
	previous, current := t.MarkReported()
	r.reportMu.Unlock()

	elapsed := now.Sub(t.StartTime)

	var lastRate float64
	if seconds := r.interval.Seconds(); seconds > 0 {
		lastRate = float64(current-previous) / seconds
	}

	return Status{
		ID:              t.ID,
		Filename:        t.Filename,
		LastRate:        lastRate,
		CumulativeRate:  domain.RatePerSecond(current, elapsed),
		Elapsed:         elapsed,
		CompletedBytes:  current,
		TotalBytes:      t.FileSize,
		PercentComplete: domain.PercentOf(current, t.FileSize),
	}
}
