// Package event provides event publishing abstractions.
//
// Services depend on Publisher only. The logging publisher suits development
// and tests; the NATS publisher sends events to a JetStream stream.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"

	"github.com/mvaleed/seedwork/internal/domain"
)

// Publisher is the interface for publishing domain events.
type Publisher interface {
	// Publish sends an event to the message broker.
	Publish(ctx context.Context, event domain.Event) error

	// PublishBatch sends events in order and stops at the first failure.
	PublishBatch(ctx context.Context, events []domain.Event) error

	// Close cleanly shuts down the publisher.
	Close() error
}

// LoggingPublisher implements Publisher by logging events.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.Event) error {
	data, _ := json.Marshal(event.Data)
	p.logger.InfoContext(ctx, "event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("subject", event.Subject),
		slog.String("data", string(data)),
	)
	return nil
}

func (p *LoggingPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	return publishEach(ctx, p, events)
}

func (p *LoggingPublisher) Close() error {
	return nil
}

// NoopPublisher is a no-op implementation for when event publishing is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(context.Context, domain.Event) error {
	return nil
}

func (p *NoopPublisher) PublishBatch(context.Context, []domain.Event) error {
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// Recorder keeps published events in memory. Tests use it to assert what a
// service emitted.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *Recorder) Publish(_ context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) PublishBatch(ctx context.Context, events []domain.Event) error {
	return publishEach(ctx, r, events)
}

func (r *Recorder) Close() error { return nil }

// Types returns the types of the recorded events in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func publishEach(ctx context.Context, p Publisher, events []domain.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
