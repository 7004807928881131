// Package metrics exposes ingest counters for Prometheus scraping.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const namespace = "zingest"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
const shutdownTimeout = 5 * time.Second

// Metrics holds all Prometheus metrics for an ingest run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	BytesIngested    prometheus.Counter
	Transfers        *prometheus.CounterVec
	ActiveTransfers  prometheus.Gauge
	Passes           prometheus.Counter
	SplitRetries     prometheus.Counter
	TransferDuration prometheus.Histogram
}

// New registers the ingest metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BytesIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_ingested_total",
			Help:      "Total bytes read from sources and written to GridFS",
		}),
		Transfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Finished transfers by outcome",
			},
			[]string{"status"},
		),
		ActiveTransfers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_transfers",
			Help:      "Transfers currently in flight",
		}),
		Passes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Completed passes over the file list",
		}),
		SplitRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_retries_total",
			Help:      "Split commands retried after a LockBusy reply",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Wall time of finished transfers",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
	}
}

// TransferStarted marks one transfer as in flight.
func (m *Metrics) TransferStarted() {
	if m == nil {
		return
	}
	m.ActiveTransfers.Inc()
}

// TransferFinished records the outcome of a transfer that was started.
func (m *Metrics) TransferFinished(status string, bytes int64, d time.Duration) {
	if m == nil {
		return
	}
	m.ActiveTransfers.Dec()
	m.BytesIngested.Add(float64(bytes))
	m.Transfers.WithLabelValues(status).Inc()
	m.TransferDuration.Observe(d.Seconds())
}

// TransferSkipped records a transfer whose source could not be opened.
func (m *Metrics) TransferSkipped(status string) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(status).Inc()
}

// PassCompleted counts one finished pass.
func (m *Metrics) PassCompleted() {
	if m == nil {
		return
	}
	m.Passes.Inc()
}

// SplitRetried counts one LockBusy retry.
func (m *Metrics) SplitRetried() {
	if m == nil {
		return
	}
	m.SplitRetries.Inc()
}

// Handler returns the scrape endpoints for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve listens on address until ctx is done, then shuts the server down.
func Serve(ctx context.Context, address string, gatherer prometheus.Gatherer) error {
	server := &http.Server{
		Addr:              address,
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Serving metrics on %s", address)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
