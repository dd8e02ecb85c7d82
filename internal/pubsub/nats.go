package pubsub

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

// NATSPubSub carries draft events over an external NATS JetStream cluster.
// Events are kept in file storage with no age limit so drafts can be replayed.
type NATSPubSub struct {
	*jetStreamBus
}

// NewNATSPubSub connects to NATS and ensures the draft event stream exists
func NewNATSPubSub(natsURL, subject string) (*NATSPubSub, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("gridiron-draft-assistant"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := openJetStreamBus("nats", nc, streamSpec{
		name:    DefaultStreamName,
		subject: subject,
		storage: nats.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, err
	}

	logger.Info("Connected to NATS JetStream", "url", natsURL, "subject", subject)
	return &NATSPubSub{jetStreamBus: bus}, nil
}

// Close closes the NATS connection and every local subscription
func (p *NATSPubSub) Close() {
	p.close()
}
