package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher is the subset of *nats.Conn the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials the broker with reconnect handling logged through zap.
func ConnectNATS(url, name string, logger *zap.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NATSForwarder republishes domain events as JSON on "<prefix>.<type>" subjects.
type NATSForwarder struct {
	conn   Publisher
	prefix string
	logger *zap.Logger
}

// NewNATSForwarder builds a forwarder.
func NewNATSForwarder(conn Publisher, prefix string, logger *zap.Logger) *NATSForwarder {
	return &NATSForwarder{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger,
	}
}

// Register subscribes the forwarder to every event type.
func (f *NATSForwarder) Register(d Dispatcher) {
	if f == nil || d == nil {
		return
	}
	for _, t := range AllEventTypes {
		d.Subscribe(t, f.forward)
	}
}

// Subject returns the subject an event type is published on.
func (f *NATSForwarder) Subject(t EventType) string {
	if f.prefix == "" {
		return string(t)
	}
	return f.prefix + "." + string(t)
}

func (f *NATSForwarder) forward(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	subject := f.Subject(event.Type)
	if err := f.conn.Publish(subject, data); err != nil {
		f.logger.Warn("nats publish failed", zap.String("subject", subject), zap.Error(err))
		return err
	}
	f.logger.Debug("event forwarded", zap.String("subject", subject), zap.String("event_id", event.ID))
	return nil
}
