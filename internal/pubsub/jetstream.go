package pubsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

// DefaultStreamName is the JetStream stream holding draft events
const DefaultStreamName = "DRAFT_EVENTS"

// DefaultSubject is where draft events are published
const DefaultSubject = "draftassist.events"

// jetStreamBus publishes draft events to a JetStream subject and fans every
// delivered event out to local subscriber channels
type jetStreamBus struct {
	name        string
	nc          *nats.Conn
	js          nats.JetStreamContext
	sub         *nats.Subscription
	subject     string
	subscribers []chan Event
	mu          sync.RWMutex
}

type streamSpec struct {
	name    string
	subject string
	storage nats.StorageType
	maxAge  time.Duration
}

// openJetStreamBus ensures the stream exists on nc and starts delivering new
// messages. The caller owns nc until this returns without error.
func openJetStreamBus(name string, nc *nats.Conn, sc streamSpec) (*jetStreamBus, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.StreamInfo(sc.name); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     sc.name,
			Subjects: []string{sc.subject},
			Storage:  sc.storage,
			MaxAge:   sc.maxAge,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", sc.name, err)
		}
		logger.Info("JetStream stream created", "stream", sc.name, "subject", sc.subject)
	}

	b := &jetStreamBus{
		name:    name,
		nc:      nc,
		js:      js,
		subject: sc.subject,
	}

	// subscribe before returning so events published right after construction are delivered
	b.sub, err = js.Subscribe(sc.subject, b.deliver, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", sc.subject, err)
	}
	return b, nil
}

func (b *jetStreamBus) deliver(msg *nats.Msg) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		logger.Error("Failed to unmarshal event from JetStream", "error", err, "bus", b.name)
		msg.Nak()
		return
	}

	// sends never block, so holding the read lock keeps Unsubscribe from closing a channel mid-send
	b.mu.RLock()
	for _, sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			logger.Warn("Skipping slow subscriber", "bus", b.name, "event_type", event.Type)
		}
	}
	b.mu.RUnlock()
	msg.Ack()
}

// Publish writes an event to the JetStream subject. Local subscribers receive
// it when JetStream delivers it back.
func (b *jetStreamBus) Publish(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}

	if _, err := b.js.Publish(b.subject, data); err != nil {
		logger.Error("Failed to publish event", "error", err, "bus", b.name, "subject", b.subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event", "bus", b.name, "event_type", event.Type, "session_id", event.SessionID)
}

// Subscribe creates a subscription channel for events
func (b *jetStreamBus) Subscribe() chan Event {
	ch := make(chan Event, 100)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	n := len(b.subscribers)
	b.mu.Unlock()

	logger.Debug("New subscriber added", "bus", b.name, "total_subscribers", n)
	return ch
}

// Unsubscribe removes and closes a subscription channel
func (b *jetStreamBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// GetSubscriberCount returns the number of active local subscribers
func (b *jetStreamBus) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// SessionEvents reads every event for sessionID still held by the stream, oldest first
func (b *jetStreamBus) SessionEvents(sessionID string, wait time.Duration) ([]Event, error) {
	sub, err := b.js.SubscribeSync(b.subject, nats.DeliverAll(), nats.AckNone())
	if err != nil {
		return nil, fmt.Errorf("failed to open replay subscription: %w", err)
	}
	defer sub.Unsubscribe()

	var events []Event
	for {
		msg, err := sub.NextMsg(wait)
		if errors.Is(err, nats.ErrTimeout) {
			return events, nil
		}
		if err != nil {
			return events, fmt.Errorf("failed to read replay: %w", err)
		}

		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logger.Warn("Skipping undecodable event during replay", "error", err, "bus", b.name)
			continue
		}
		if event.SessionID == sessionID {
			events = append(events, event)
		}

		if meta, err := msg.Metadata(); err == nil && meta.NumPending == 0 {
			return events, nil
		}
	}
}

// close drops the delivery subscription, closes local channels and the connection
func (b *jetStreamBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sub != nil {
		_ = b.sub.Unsubscribe()
		b.sub = nil
	}
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil

	if b.nc != nil {
		b.nc.Close()
	}
}
