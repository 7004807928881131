package progress

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zingest/internal/domain"
)

// CumulativeStatus summarizes every transfer since the process started.
type CumulativeStatus struct {
	TotalBytes    int64 // Completed plus in-flight
	RatePerSecond float64
	Elapsed       time.Duration
}

// Report is everything emitted by one reporter tick.
type Report struct {
	Entries    []Status
	Cumulative CumulativeStatus
}

// Reporter periodically logs the status of every in-flight transfer.
type Reporter struct {
	registry *Registry
	interval time.Duration
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewReporter(registry *Registry, interval time.Duration) *Reporter {
	return &Reporter{
		registry: registry,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the reporter in the background until Stop is called or ctx is done.
func (r *Reporter) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.Run(ctx)
	}()
}

// Stop cancels a started reporter and waits for its loop to exit.
func (r *Reporter) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
}

// Run ticks every interval until ctx is done. A failing tick is logged and
// the loop carries on.
func (r *Reporter) Run(ctx context.Context) {
	log.Infof("Starting status logging interval: %s", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Interrupted. Exiting.")
			return
		case <-ticker.C:
			if _, err := r.Tick(r.now()); err != nil {
				log.WithError(err).Warn("Failure in status reporter")
			}
		}
	}
}

// Tick logs one status line per in-flight transfer, in start order, followed
// by the cumulative line.
func (r *Reporter) Tick(now time.Time) (report Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("status tick: %v", rec)
		}
	}()

	totals := r.registry.Totals()
	totalBytes := totals.Bytes()

	for _, t := range r.registry.Snapshot() {
		status := r.registry.status(now, t)
		totalBytes += status.CompletedBytes
		logStatus(status)
		report.Entries = append(report.Entries, status)
	}

	elapsed := totals.Elapsed(now)
	report.Cumulative = CumulativeStatus{
		TotalBytes:    totalBytes,
		RatePerSecond: domain.RatePerSecond(totalBytes, elapsed),
		Elapsed:       elapsed,
	}
	logCumulative(report.Cumulative)

	return report, nil
}
