package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzenonn/zingest/internal/domain"
)

type stubCounter struct {
	n atomic.Int64
}

func (c *stubCounter) Count() int64 { return c.n.Load() }

func (c *stubCounter) set(n int64) { c.n.Store(n) }

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRegistry(interval time.Duration) *Registry {
	r := NewRegistry(domain.NewProcessTotals(epoch), interval)
	r.now = func() time.Time { return epoch.Add(10 * time.Second) }
	return r
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	registry := newTestRegistry(time.Second)
	counter := &stubCounter{}
	counter.set(42)

	registry.Put(domain.NewTransfer("a", "file.iso", 100, epoch, counter))
	require.Equal(t, 1, registry.Len())

	removed, ok := registry.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", removed.ID)
	assert.Equal(t, int64(42), registry.Totals().Bytes())

	_, ok = registry.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, int64(42), registry.Totals().Bytes())
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_ConcurrentRemoveFoldsOnce(t *testing.T) {
	registry := newTestRegistry(time.Second)
	counter := &stubCounter{}
	counter.set(7)
	registry.Put(domain.NewTransfer("a", "file.iso", 100, epoch, counter))

	var wg sync.WaitGroup
	var removals atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := registry.Remove("a"); ok {
				removals.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), removals.Load())
	assert.Equal(t, int64(7), registry.Totals().Bytes())
}

func TestRegistry_RemoveLogsFinalStatus(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	registry := newTestRegistry(time.Second)
	counter := &stubCounter{}
	counter.set(50)
	registry.Put(domain.NewTransfer("a", "file.iso", 200, epoch, counter))

	_, ok := registry.Remove("a")
	require.True(t, ok)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Removing status entry a", entries[0].Message)
	assert.Equal(t, "a", entries[1].Data["transfer_id"])
	assert.Equal(t, int64(50), entries[1].Data["completed_bytes"])
	assert.InDelta(t, 25.0, entries[1].Data["percent"], 0.0001)
}

func TestReporter_TickOrdersAndComputesRates(t *testing.T) {
	registry := newTestRegistry(2 * time.Second)
	registry.Totals().Add(1000)

	late := &stubCounter{}
	early := &stubCounter{}
	tie := &stubCounter{}
	late.set(400)
	early.set(100)
	tie.set(0)

	registry.Put(domain.NewTransfer("late", "c.iso", 800, epoch.Add(6*time.Second), late))
	registry.Put(domain.NewTransfer("zz-early", "a.iso", 100, epoch.Add(time.Second), early))
	registry.Put(domain.NewTransfer("aa-early", "b.iso", 0, epoch.Add(time.Second), tie))

	reporter := NewReporter(registry, 2*time.Second)
	now := epoch.Add(10 * time.Second)

	report, err := reporter.Tick(now)
	require.NoError(t, err)
	require.Len(t, report.Entries, 3)

	assert.Equal(t, "aa-early", report.Entries[0].ID)
	assert.Equal(t, "zz-early", report.Entries[1].ID)
	assert.Equal(t, "late", report.Entries[2].ID)

	lateStatus := report.Entries[2]
	assert.InDelta(t, 200.0, lateStatus.LastRate, 0.0001)
	assert.InDelta(t, 100.0, lateStatus.CumulativeRate, 0.0001)
	assert.InDelta(t, 50.0, lateStatus.PercentComplete, 0.0001)
	assert.Equal(t, 4*time.Second, lateStatus.Elapsed)

	// Zero-size file reports complete instead of dividing by zero.
	assert.Equal(t, 100.0, report.Entries[0].PercentComplete)

	assert.Equal(t, int64(1500), report.Cumulative.TotalBytes)
	assert.InDelta(t, 150.0, report.Cumulative.RatePerSecond, 0.0001)

	// The next tick only sees the bytes read since this one.
	late.set(500)
	report, err = reporter.Tick(now.Add(2 * time.Second))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, report.Entries[2].LastRate, 0.0001)
	assert.InDelta(t, 0.0, report.Entries[1].LastRate, 0.0001)
}

func TestReporter_TickJustStartedTransfer(t *testing.T) {
	registry := newTestRegistry(time.Second)
	registry.Put(domain.NewTransfer("new", "n.iso", 10, epoch, &stubCounter{}))

	report, err := NewReporter(registry, time.Second).Tick(epoch)
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, 0.0, report.Entries[0].CumulativeRate)
	assert.Equal(t, 0.0, report.Cumulative.RatePerSecond)
}

func TestReporter_TickEmitsCumulativeLine(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	registry := newTestRegistry(time.Second)
	_, err := NewReporter(registry, time.Second).Tick(epoch.Add(time.Second))
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.InfoLevel, last.Level)
	assert.Contains(t, last.Message, "Cumulative Status:")
}

func TestReporter_StopEndsLoop(t *testing.T) {
	registry := newTestRegistry(time.Millisecond)
	reporter := NewReporter(registry, 5*time.Millisecond)

	reporter.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		reporter.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}

func TestReporter_ParentCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reporter := NewReporter(newTestRegistry(time.Second), time.Hour)

	done := make(chan struct{})
	go func() {
		reporter.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reporter did not exit on cancel")
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.0, "0"},
		{2.0, "2"},
		{2002.1, "2,002"},
		{12342002.1231, "12,342,002"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in))
	}
}
