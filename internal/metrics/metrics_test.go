package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_TransferLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TransferStarted()
	m.TransferStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveTransfers))

	m.TransferFinished("succeeded", 300, time.Second)
	m.TransferFinished("failed", 20, time.Second)
	m.TransferSkipped("missing")
	m.PassCompleted()
	m.SplitRetried()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveTransfers))
	assert.Equal(t, 320.0, testutil.ToFloat64(m.BytesIngested))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transfers.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transfers.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transfers.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SplitRetries))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TransferDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TransferStarted()
		m.TransferFinished("succeeded", 1, time.Second)
		m.TransferSkipped("missing")
		m.PassCompleted()
		m.SplitRetried()
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.PassCompleted()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "zingest_passes_total 1")

	health, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
