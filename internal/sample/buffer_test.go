package sample

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqs(samples []Sample) []uint64 {
	out := make([]uint64, len(samples))
	for i, s := range samples {
		out[i] = s.Seq
	}
	return out
}

func values(samples []Sample) []float64 {
	return Column(samples, 0)
}

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name    string
		maxLen  int
		wantCap int
	}{
		{"unbounded zero", 0, 0},
		{"unbounded negative", -5, 0},
		{"bounded", 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.maxLen)
			assert.Equal(t, tt.wantCap, b.Cap())
			assert.Equal(t, 0, b.Len())
			assert.Equal(t, uint64(0), b.LastSeq())
			assert.Nil(t, b.Snapshot())
		})
	}
}

func TestBufferAppendAssignsSequence(t *testing.T) {
	b := NewBuffer(0)

	for _, v := range []float64{1.0, 2.0, 3.0} {
		b.Append(Scalar(v))
	}

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []uint64{1, 2, 3}, seqs(snap))
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, values(snap))
	assert.Equal(t, uint64(3), b.LastSeq())
}

func TestBufferSequenceHasNoGaps(t *testing.T) {
	b := NewBuffer(0)

	const n = 500
	for i := 0; i < n; i++ {
		b.Append(Scalar(float64(i)))
	}

	snap := b.Snapshot()
	require.Len(t, snap, n)
	for i, s := range snap {
		assert.Equal(t, uint64(i+1), s.Seq)
	}
}

func TestBufferAppendCopiesValues(t *testing.T) {
	b := NewBuffer(0)

	vals := []float64{10, 20, 429}
	b.Append(Reading{Values: vals, Timestamp: 1706038908569, HasTimestamp: true})
	vals[0] = 99

	s := b.Snapshot()[0]
	assert.Equal(t, []float64{10, 20, 429}, s.Values)
	assert.Equal(t, int64(1706038908569), s.Timestamp)
	assert.True(t, s.HasTimestamp)
}

func TestBufferBoundedEviction(t *testing.T) {
	b := NewBuffer(5)

	for i := 0; i < 8; i++ {
		b.Append(Scalar(float64(i)))
	}

	assert.Equal(t, 5, b.Len())
	assert.Equal(t, uint64(8), b.LastSeq())
	assert.Equal(t, uint64(3), b.Evicted())

	snap := b.Snapshot()
	assert.Equal(t, []uint64{4, 5, 6, 7, 8}, seqs(snap))
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, values(snap))
}

func TestBufferLast(t *testing.T) {
	tests := []struct {
		name   string
		maxLen int
	}{
		{"unbounded", 0},
		{"bounded", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.maxLen)
			for i := 1; i <= 6; i++ {
				b.Append(Scalar(float64(i)))
			}

			assert.Equal(t, []float64{5, 6}, values(b.Last(2)))
			assert.Nil(t, b.Last(0))
			assert.Len(t, b.Last(100), b.Len())
		})
	}
}

func TestBufferSince(t *testing.T) {
	b := NewBuffer(0)
	for i := 1; i <= 5; i++ {
		b.Append(Scalar(float64(i * 10)))
	}

	assert.Equal(t, []uint64{4, 5}, seqs(b.Since(3)))
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seqs(b.Since(0)))
	assert.Nil(t, b.Since(5))
	assert.Nil(t, b.Since(42))
}

func TestBufferSinceAfterEviction(t *testing.T) {
	b := NewBuffer(3)
	for i := 1; i <= 10; i++ {
		b.Append(Scalar(float64(i)))
	}

	// seq 2..7 were evicted, only the retained tail comes back
	assert.Equal(t, []uint64{8, 9, 10}, seqs(b.Since(1)))
	assert.Equal(t, []uint64{10}, seqs(b.Since(9)))
}

func TestBufferSnapshotIsACopy(t *testing.T) {
	b := NewBuffer(0)
	b.Append(Scalar(1))

	snap := b.Snapshot()
	snap[0].Seq = 42

	assert.Equal(t, uint64(1), b.Snapshot()[0].Seq)
}

func TestBufferConcurrentReadersSeeOrderedPrefix(t *testing.T) {
	b := NewBuffer(0)
	const n = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			b.Append(Scalar(float64(i + 1)))
		}
	}()

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := b.Snapshot()
			for i, s := range snap {
				// a prefix, in order, with fully built samples
				if s.Seq != uint64(i+1) || s.Value() != float64(i+1) {
					t.Errorf("snapshot out of order at %d: %+v", i, s)
					return
				}
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	assert.Equal(t, n, b.Len())
}

func TestSampleAccessors(t *testing.T) {
	s := Sample{Seq: 1, Values: []float64{10, 20, 30}}

	assert.Equal(t, 10.0, s.Value())

	v, ok := s.At(2)
	assert.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = s.At(3)
	assert.False(t, ok)
	_, ok = s.At(-1)
	assert.False(t, ok)

	assert.Equal(t, 0.0, Sample{}.Value())
}

func TestColumn(t *testing.T) {
	samples := []Sample{
		{Seq: 1, Values: []float64{1, 2}},
		{Seq: 2, Values: []float64{3}},
		{Seq: 3, Values: []float64{5, 6}},
	}

	assert.Equal(t, []float64{1, 3, 5}, Column(samples, 0))
	assert.Equal(t, []float64{2, 6}, Column(samples, 1))
	assert.Empty(t, Column(samples, 5))
}
