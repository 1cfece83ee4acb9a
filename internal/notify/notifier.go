// Package notify publishes build-completed events.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/campus/internal/config"
	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
)

// Notifier delivers build events.
type Notifier interface {
	Notify(ctx context.Context, event BuildEvent) error
	Close() error
}

// Noop discards events (used when no NATS URL is configured).
type Noop struct{}

func (Noop) Notify(context.Context, BuildEvent) error { return nil }
func (Noop) Close() error                             { return nil }

// NATSNotifier publishes events as JSON on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// New returns a notifier for cfg: Noop when no URL is set, otherwise a
// connected NATSNotifier.
func New(cfg config.NotifyConfig, opts ...nats.Option) (Notifier, error) {
	if cfg.NATSURL == "" {
		return Noop{}, nil
	}
	return NewNATSNotifier(cfg.NATSURL, cfg.Subject, opts...)
}

// NewNATSNotifier connects to url.
func NewNATSNotifier(url, subject string, opts ...nats.Option) (*NATSNotifier, error) {
	base := []nats.Option{nats.Name("campus"), nats.Timeout(5 * time.Second)}
	conn, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "connect to NATS").
			Retryable().
			WithContext("url", url).
			Build()
	}
	slog.Debug("NATS notifier connected", "url", url, logfields.Subject(subject))
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// Notify publishes event and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, event BuildEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal build event").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "publish build event").
			Retryable().
			WithContext("subject", n.subject).
			Build()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "flush build event").
			Retryable().
			WithContext("subject", n.subject).
			Build()
	}
	slog.Debug("Published build event", logfields.BuildID(event.BuildID), logfields.Subject(n.subject))
	return nil
}

// Close drains and closes the connection.
func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
