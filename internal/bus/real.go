package bus

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
)

// Real is a bus connection backed by an MQTT broker. Every worker opens its
// own connection with a unique client ID so restarts never kick a sibling
// off a shared session.
type Real struct {
	client paho.Client
	log    zerolog.Logger

	mu   sync.Mutex
	subs []*Subscription
}

// Dial connects to the broker. name identifies the worker in the client ID
// and in logs. A failure here is the only fatal bus condition; everything
// after setup is retried or dropped, never fatal.
func Dial(broker, name string, logger zerolog.Logger) (*Real, error) {
	clientID := fmt.Sprintf("neurodeck-%s-%s", name, uuid.NewString()[:8])
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	return &Real{
		client: client,
		log:    logger.With().Str("client_id", clientID).Logger(),
	}, nil
}

// Publish sends the payload at QoS 0 without waiting for the token. The
// paho client queues the write; a broken connection surfaces through its
// reconnect machinery, and losing a frame of a continuous stream is cheaper
// than stalling the processing loop.
func (r *Real) Publish(topic string, payload []byte) error {
	r.client.Publish(topic, 0, false, payload)
	return nil
}

// Subscribe registers a subscription with the given policy. The broker-side
// subscription is QoS 0; the policy is applied in the local mailbox.
func (r *Real) Subscribe(topic string, policy Policy) (*Subscription, error) {
	sub := newSubscription(topic, policy)
	token := r.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		sub.deliver(m.Payload())
	})
	if !token.WaitTimeout(subscribeTimeout) {
		return nil, fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub, nil
}

// Close unsubscribes everything and disconnects. Runs on every exit path.
func (r *Real) Close() error {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	for _, sub := range subs {
		token := r.client.Unsubscribe(sub.Topic())
		if !token.WaitTimeout(subscribeTimeout) {
			r.log.Warn().Str("topic", sub.Topic()).Msg("unsubscribe timeout")
		}
		if dropped := sub.Dropped(); dropped > 0 {
			r.log.Warn().Str("topic", sub.Topic()).Uint64("dropped", dropped).
				Msg("queued messages dropped during run")
		}
	}
	r.client.Disconnect(1000) // milliseconds to flush in-flight work
	return nil
}
