package bus

import (
	"fmt"
	"sync"
)

// Fake is a fully in-memory bus with the same policy semantics as Real.
// Tests wire producers and consumers through it without a broker; it also
// records everything published for assertions.
type Fake struct {
	mu     sync.Mutex
	subs   map[string][]*Subscription
	record map[string][][]byte
	closed bool
}

// NewFake creates an empty in-memory bus.
func NewFake() *Fake {
	return &Fake{
		subs:   make(map[string][]*Subscription),
		record: make(map[string][][]byte),
	}
}

// Publish records the payload and delivers a copy to every subscription on
// the topic, applying each subscription's policy.
func (f *Fake) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("publish %s: bus closed", topic)
	}
	f.record[topic] = append(f.record[topic], append([]byte(nil), payload...))
	for _, sub := range f.subs[topic] {
		sub.deliver(append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe registers a subscription on the topic.
func (f *Fake) Subscribe(topic string, policy Policy) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, fmt.Errorf("subscribe %s: bus closed", topic)
	}
	sub := newSubscription(topic, policy)
	f.subs[topic] = append(f.subs[topic], sub)
	return sub, nil
}

// Close marks the bus closed. Further publishes and subscribes fail.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Published returns every payload published to the topic, in order.
func (f *Fake) Published(topic string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.record[topic]))
	copy(out, f.record[topic])
	return out
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
