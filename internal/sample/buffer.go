package sample

import "sync"

// Buffer is an ordered, append-only sequence of Samples.
//
// A single writer appends; any number of readers take snapshots. Readers hold
// the read lock only while copying, so they never stall the writer for longer
// than one copy. With a positive maximum length the buffer becomes a ring that
// evicts the oldest samples; retained sequence numbers stay contiguous.
type Buffer struct {
	mu      sync.RWMutex
	max     int
	data    []Sample
	head    int // next write position when bounded
	count   int
	lastSeq uint64
	evicted uint64
}

// NewBuffer creates an empty buffer. maxLen <= 0 means unbounded.
func NewBuffer(maxLen int) *Buffer {
	b := &Buffer{}
	if maxLen > 0 {
		b.max = maxLen
		b.data = make([]Sample, maxLen)
	}
	return b
}

// Append sequences r and stores it, returning the stored Sample.
// The first sample gets sequence number 1.
func (b *Buffer) Append(r Reading) Sample {
	values := make([]float64, len(r.Values))
	copy(values, r.Values)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	s := Sample{
		Seq:          b.lastSeq,
		Values:       values,
		Timestamp:    r.Timestamp,
		HasTimestamp: r.HasTimestamp,
	}

	if b.max == 0 {
		b.data = append(b.data, s)
		b.count++
		return s
	}

	b.data[b.head] = s
	b.head = (b.head + 1) % b.max
	if b.count < b.max {
		b.count++
	} else {
		b.evicted++
	}
	return s
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the maximum length, or 0 when unbounded.
func (b *Buffer) Cap() int {
	return b.max
}

// LastSeq returns the sequence number of the newest sample, or 0 if empty.
// It keeps growing after the buffer is full, so it is the value to compare
// when detecting new data.
func (b *Buffer) LastSeq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSeq
}

// Evicted returns how many samples were dropped to respect the maximum length.
func (b *Buffer) Evicted() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.evicted
}

// Snapshot returns a copy of all retained samples, oldest first.
func (b *Buffer) Snapshot() []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastLocked(b.count)
}

// Last returns up to n of the most recent samples, oldest first.
func (b *Buffer) Last(n int) []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastLocked(n)
}

// Since returns the retained samples whose sequence number is greater than seq.
// If some of them were already evicted, only the retained tail is returned.
func (b *Buffer) Since(seq uint64) []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if seq >= b.lastSeq {
		return nil
	}
	n := b.lastSeq - seq
	if n > uint64(b.count) {
		n = uint64(b.count)
	}
	return b.lastLocked(int(n))
}

// lastLocked copies the newest n samples in chronological order.
// Must be called with b.mu held.
func (b *Buffer) lastLocked(n int) []Sample {
	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	out := make([]Sample, n)
	if b.max == 0 {
		copy(out, b.data[b.count-n:])
		return out
	}

	// head points to the next write position, so the newest value is at head-1
	start := (b.head - n + b.max) % b.max
	for i := 0; i < n; i++ {
		out[i] = b.data[(start+i)%b.max]
	}
	return out
}
