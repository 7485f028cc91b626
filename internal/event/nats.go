package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mvaleed/seedwork/internal/config"
	"github.com/mvaleed/seedwork/internal/domain"
)

// NATSPublisher publishes events as JSON to a JetStream stream. Each event
// goes to <subject>.<event type>, e.g. seedwork.user.created, and carries its
// ID as the message ID so redelivered publishes are deduplicated.
type NATSPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *slog.Logger
}

// ConnectNATS connects to cfg.URL and ensures the stream exists.
func ConnectNATS(ctx context.Context, cfg config.NATS, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("seedwork"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	logger.Info("nats connected", "url", cfg.URL, "stream", cfg.Stream)
	return &NATSPublisher{nc: nc, js: js, subject: cfg.Subject, logger: logger}, nil
}

// Subject returns the NATS subject event is published on.
func (p *NATSPublisher) Subject(event domain.Event) string {
	return p.subject + "." + event.Type
}

func (p *NATSPublisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	subject := p.Subject(event)
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID.String())); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	p.logger.DebugContext(ctx, "event published", "subject", subject, "event_id", event.ID)
	return nil
}

func (p *NATSPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	return publishEach(ctx, p, events)
}

// Close drains pending publishes and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
