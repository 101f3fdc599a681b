package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink delivers events to their durable destination.
type Sink interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Publisher accepts events from request handlers without blocking them. A
// full buffer drops the event with a warning; donation processing must never
// wait on the audit pipeline.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

const defaultBuffer = 256

// NewPublisher builds a publisher with a buffered inbox.
func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, defaultBuffer),
		logger: logger,
	}
}

// Emit queues an event for background delivery.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action,
			"donation_request_id", event.DonationRequestID,
		)
	}
}

// Worker drains the publisher inbox into a sink. Run it under an errgroup in
// main; it returns when the context is cancelled.
type Worker struct {
	publisher *Publisher
	sink      Sink
	logger    *slog.Logger
}

// NewWorker builds a worker for the given publisher and sink.
func NewWorker(p *Publisher, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{publisher: p, sink: sink, logger: logger}
}

// Run consumes events until ctx is done. Sink failures are logged and the
// event dropped; the worker keeps going.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.publisher.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit publish failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
