package domain

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int64

func (c fixedCounter) Count() int64 { return int64(c) }

func TestTransfer_Before(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b *Transfer
		want bool
	}{
		{
			name: "earlier start sorts first regardless of id",
			a:    NewTransfer("zz", "a", 1, base, nil),
			b:    NewTransfer("aa", "b", 1, base.Add(time.Second), nil),
			want: true,
		},
		{
			name: "later start sorts last regardless of id",
			a:    NewTransfer("aa", "a", 1, base.Add(time.Second), nil),
			b:    NewTransfer("zz", "b", 1, base, nil),
			want: false,
		},
		{
			name: "equal start falls back to id",
			a:    NewTransfer("aa", "a", 1, base, nil),
			b:    NewTransfer("bb", "b", 1, base, nil),
			want: true,
		},
		{
			name: "same transfer is not before itself",
			a:    NewTransfer("aa", "a", 1, base, nil),
			b:    NewTransfer("aa", "a", 1, base, nil),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Before(tt.b))
		})
	}
}

func TestTransfer_SortIsTotal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	transfers := []*Transfer{
		NewTransfer("bb", "f", 1, base.Add(time.Second), nil),
		NewTransfer("cc", "f", 1, base, nil),
		NewTransfer("aa", "f", 1, base.Add(time.Second), nil),
		NewTransfer("dd", "f", 1, base, nil),
	}

	sort.Slice(transfers, func(i, j int) bool { return transfers[i].Before(transfers[j]) })

	ids := make([]string, 0, len(transfers))
	for _, tr := range transfers {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"cc", "dd", "aa", "bb"}, ids)
}

func TestTransfer_PercentComplete(t *testing.T) {
	tests := []struct {
		name  string
		size  int64
		count int64
		want  float64
	}{
		{"half", 200, 100, 50},
		{"zero size is complete", 0, 0, 100},
		{"padding past size is tolerated", 100, 120, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransfer("id", "f", tt.size, time.Now(), fixedCounter(tt.count))
			assert.InDelta(t, tt.want, tr.PercentComplete(), 0.0001)
		})
	}
}

func TestTransfer_MarkReported(t *testing.T) {
	counter := fixedCounter(10)
	tr := NewTransfer("id", "f", 100, time.Now(), counter)

	prev, cur := tr.MarkReported()
	assert.Equal(t, int64(0), prev)
	assert.Equal(t, int64(10), cur)

	prev, cur = tr.MarkReported()
	assert.Equal(t, int64(10), prev)
	assert.Equal(t, int64(10), cur)
}

func TestProcessTotals_ConcurrentAdd(t *testing.T) {
	totals := NewProcessTotals(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				totals.Add(3)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(50*100*3), totals.Bytes())
}

func TestRatePerSecond(t *testing.T) {
	assert.Equal(t, 0.0, RatePerSecond(100, 0))
	assert.InDelta(t, 50.0, RatePerSecond(100, 2*time.Second), 0.0001)
}
