package pubsub

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/gridiron-draft-assistant/internal/logger"
)

// EmbeddedNATSPubSub runs a NATS server in-process so local development goes
// through the same JetStream path as a deployed instance
type EmbeddedNATSPubSub struct {
	*jetStreamBus
	server *server.Server
}

// EmbeddedNATSOptions configures the embedded NATS server
type EmbeddedNATSOptions struct {
	Port       int           // 0 or -1 picks a random free port
	Subject    string        // empty means DefaultSubject
	StreamName string        // empty means DefaultStreamName
	StoreDir   string        // JetStream file storage; empty keeps events in memory
	MaxAge     time.Duration // how long the stream keeps events; 0 means one hour
}

// DefaultEmbeddedNATSOptions returns the options used in development
func DefaultEmbeddedNATSOptions() EmbeddedNATSOptions {
	return EmbeddedNATSOptions{
		Port:       -1,
		Subject:    DefaultSubject,
		StreamName: DefaultStreamName,
		MaxAge:     time.Hour,
	}
}

// NewEmbeddedNATSPubSub starts an embedded NATS server with JetStream and connects to it
func NewEmbeddedNATSPubSub(opts EmbeddedNATSOptions) (*EmbeddedNATSPubSub, error) {
	port := opts.Port
	if port == 0 {
		// 0 would bind the default 4222
		port = -1
	}

	serverOpts := &server.Options{
		Port:      port,
		JetStream: true,
		NoSigs:    true,
		StoreDir:  opts.StoreDir,
	}

	ns, err := server.NewServer(serverOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}
	ns.SetLogger(natsLogger{}, false, false)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within timeout")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Name("gridiron-draft-assistant-embedded"))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("failed to connect to embedded NATS: %w", err)
	}

	sc := streamSpec{
		name:    opts.StreamName,
		subject: opts.Subject,
		storage: nats.MemoryStorage,
		maxAge:  opts.MaxAge,
	}
	if sc.name == "" {
		sc.name = DefaultStreamName
	}
	if sc.subject == "" {
		sc.subject = DefaultSubject
	}
	if sc.maxAge <= 0 {
		sc.maxAge = time.Hour
	}
	if opts.StoreDir != "" {
		sc.storage = nats.FileStorage
	}

	bus, err := openJetStreamBus("embedded-nats", nc, sc)
	if err != nil {
		nc.Close()
		ns.Shutdown()
		return nil, err
	}

	logger.Info("Embedded NATS server started", "url", ns.ClientURL(), "stream", sc.name, "subject", sc.subject)
	return &EmbeddedNATSPubSub{jetStreamBus: bus, server: ns}, nil
}

// Close disconnects and shuts the embedded server down
func (p *EmbeddedNATSPubSub) Close() {
	logger.Info("Shutting down embedded NATS server")
	p.close()
	p.server.Shutdown()
	p.server.WaitForShutdown()
}

// GetServerURL returns the client URL of the embedded server
func (p *EmbeddedNATSPubSub) GetServerURL() string {
	return p.server.ClientURL()
}

// natsLogger routes NATS server logs through the service logger
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...interface{}) {
	logger.Info(fmt.Sprintf("[NATS] "+format, v...))
}

func (natsLogger) Warnf(format string, v ...interface{}) {
	logger.Warn(fmt.Sprintf("[NATS] "+format, v...))
}

func (natsLogger) Fatalf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (natsLogger) Errorf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf("[NATS] "+format, v...))
}

func (natsLogger) Debugf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf("[NATS] "+format, v...))
}

func (natsLogger) Tracef(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf("[NATS TRACE] "+format, v...))
}
