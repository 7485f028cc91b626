// Package service contains the business logic layer.
// Services orchestrate operations across repositories, handle transactions,
// and publish events. They do not know about HTTP, gRPC, or transport details.
//
// Every operation returns a result.Result or result.Of. Expected failures
// carry domain error codes; storage and broker errors travel as
// result.Unexpected so transports can log them without exposing the cause.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/event"
	"github.com/mvaleed/seedwork/internal/result"
)

// fault converts a repository error into the fault a result carries.
// Domain errors pass through; anything else is unexpected.
func fault(err error) result.Fault {
	var e result.Error
	if errors.As(err, &e) {
		return e
	}
	return result.Unexpected(err)
}

// notFoundAs replaces a generic not-found error with specific.
func notFoundAs(err error, specific result.Error) result.Fault {
	if errors.Is(err, domain.ErrNotFound) {
		return specific
	}
	return fault(err)
}

// emitter publishes events on behalf of a service. A broker failure is
// logged and never fails the operation that raised the event.
type emitter struct {
	publisher event.Publisher
	logger    *slog.Logger
}

func (e emitter) publish(ctx context.Context, ev domain.Event) {
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.logger.WarnContext(ctx, "event publish failed",
			slog.String("event_type", ev.Type),
			slog.String("subject", ev.Subject),
			slog.String("error", err.Error()),
		)
	}
}
