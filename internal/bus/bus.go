// Package bus is the pub/sub adapter every worker coordinates through. It
// offers two per-topic delivery policies:
//
//   - Queued: every message is retained in publish order up to a fixed
//     bound; beyond the bound the oldest message is dropped.
//   - Latest: only the newest message is retained; a slow subscriber sees
//     superseded values silently discarded.
//
// Publishing is fire-and-forget and receiving always honors a bounded
// timeout, so no worker ever blocks indefinitely on the bus. Subscriptions
// must be established before dependent producers start publishing; there is
// no delivery to late subscribers.
package bus

import (
	"sync/atomic"
	"time"
)

// Topic names. Samples, events and commands are Queued; status is Latest.
const (
	TopicRawSample = "neurodeck/signal/raw"
	TopicBlink     = "neurodeck/event/blink"
	TopicMove      = "neurodeck/event/move"
	TopicStatus    = "neurodeck/session/status"
	TopicCommand   = "neurodeck/session/command"
)

// Policy selects how a subscription retains messages for its consumer.
type Policy int

const (
	// Queued preserves every message in publish order, bounded by
	// QueueDepth with drop-oldest beyond it.
	Queued Policy = iota
	// Latest retains only the newest message.
	Latest
)

// QueueDepth bounds a Queued subscription. At 250 Hz sample batches this is
// tens of seconds of backlog; a consumer that far behind is better served
// by dropping the oldest data than by blocking the producer.
const QueueDepth = 256

// Conn is a bus connection. Implementations: Real (MQTT broker) and Fake
// (in-memory, for tests).
type Conn interface {
	// Publish sends a payload to a topic. Non-blocking, fire-and-forget:
	// delivery failures surface in logs, never as backpressure.
	Publish(topic string, payload []byte) error

	// Subscribe registers interest in a topic with the given policy. Must
	// be called before the corresponding producer starts publishing.
	Subscribe(topic string, policy Policy) (*Subscription, error)

	// Close releases the connection. Safe to call on every exit path.
	Close() error
}

// Subscription is a per-topic mailbox applying the delivery policy. The
// same implementation backs both the real and the fake connection.
type Subscription struct {
	topic   string
	policy  Policy
	ch      chan []byte
	dropped atomic.Uint64
}

func newSubscription(topic string, policy Policy) *Subscription {
	depth := QueueDepth
	if policy == Latest {
		depth = 1
	}
	return &Subscription{
		topic:  topic,
		policy: policy,
		ch:     make(chan []byte, depth),
	}
}

// deliver applies the policy: on a full mailbox the oldest entry gives way
// to the new one. The loop covers the race where a reader drains between
// our eviction and our send.
func (s *Subscription) deliver(payload []byte) {
	for {
		select {
		case s.ch <- payload:
			return
		default:
		}
		select {
		case <-s.ch:
			if s.policy == Queued {
				s.dropped.Add(1)
			}
		default:
		}
	}
}

// Receive returns the next payload, waiting up to timeout. The second
// return is false when the timeout elapsed with no message, an expected
// outcome that simply drives the caller's next iteration, not an error.
// A non-positive timeout polls without waiting.
func (s *Subscription) Receive(timeout time.Duration) ([]byte, bool) {
	if timeout <= 0 {
		select {
		case p := <-s.ch:
			return p, true
		default:
			return nil, false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case p := <-s.ch:
		return p, true
	case <-timer.C:
		return nil, false
	}
}

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Dropped returns how many queued messages were discarded because the
// consumer fell more than QueueDepth behind. Always 0 for Latest, where
// discarding stale values is the contract, not a loss.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }
