// Package ringbuf provides a fixed-capacity rolling sample window shared by
// the signal workers. Each configured channel keeps exactly the most recent
// N samples in arrival order; appending a batch costs O(len(batch)), not O(N).
package ringbuf

import "fmt"

// Buffer holds one rolling window per channel. Not safe for concurrent use;
// each worker owns its buffer exclusively.
type Buffer struct {
	channels []string
	index    map[string]int
	data     [][]float64
	capacity int
	head     int // next write position, shared across channels
	count    int // valid samples, grows to capacity
}

// New creates a buffer for the given channels with the given per-channel
// capacity (sample rate times window seconds).
func New(channels []string, capacity int) *Buffer {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	if len(channels) == 0 {
		panic("ringbuf: at least one channel required")
	}
	idx := make(map[string]int, len(channels))
	data := make([][]float64, len(channels))
	for i, ch := range channels {
		idx[ch] = i
		data[i] = make([]float64, capacity)
	}
	return &Buffer{
		channels: append([]string(nil), channels...),
		index:    idx,
		data:     data,
		capacity: capacity,
	}
}

// Append adds one batch of samples. Every configured channel must be present
// in the batch and all configured channels must carry the same number of
// samples; otherwise the batch is rejected and the buffer is unchanged.
func (b *Buffer) Append(batch map[string][]float64) error {
	n := -1
	for _, ch := range b.channels {
		samples, ok := batch[ch]
		if !ok {
			return fmt.Errorf("ringbuf: batch missing channel %q", ch)
		}
		if n == -1 {
			n = len(samples)
		} else if len(samples) != n {
			return fmt.Errorf("ringbuf: channel %q has %d samples, want %d", ch, len(samples), n)
		}
	}
	if n == 0 {
		return nil
	}

	if n >= b.capacity {
		// Batch alone fills the window: keep only its tail.
		for i, ch := range b.channels {
			copy(b.data[i], batch[ch][n-b.capacity:])
		}
		b.head = 0
		b.count = b.capacity
		return nil
	}

	for i, ch := range b.channels {
		samples := batch[ch]
		// Wrap-aware copy in at most two chunks.
		first := b.capacity - b.head
		if first > n {
			first = n
		}
		copy(b.data[i][b.head:], samples[:first])
		copy(b.data[i], samples[first:])
	}
	b.head = (b.head + n) % b.capacity
	b.count += n
	if b.count > b.capacity {
		b.count = b.capacity
	}
	return nil
}

// Window returns a copy of the current window for the given channel, oldest
// sample first. The slice length equals Len().
func (b *Buffer) Window(channel string) []float64 {
	i, ok := b.index[channel]
	if !ok {
		return nil
	}
	out := make([]float64, b.count)
	start := (b.head - b.count + b.capacity) % b.capacity
	for j := 0; j < b.count; j++ {
		out[j] = b.data[i][(start+j)%b.capacity]
	}
	return out
}

// Channels returns the configured channel names in order.
func (b *Buffer) Channels() []string {
	return append([]string(nil), b.channels...)
}

// Len returns the number of valid samples currently held per channel.
func (b *Buffer) Len() int { return b.count }

// Cap returns the per-channel capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Full reports whether the window has been filled at least once.
func (b *Buffer) Full() bool { return b.count == b.capacity }
