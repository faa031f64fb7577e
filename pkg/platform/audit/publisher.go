package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Publisher decouples request handling from sink latency: Publish enqueues
// without blocking and a single worker drains the inbox into the sink.
// Events are advisory; when the inbox is full they are dropped with a log
// line rather than stalling a login.
type Publisher struct {
	sink   Sink
	inbox  chan Event
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func NewPublisher(sink Sink, logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		sink:   sink,
		inbox:  make(chan Event, buffer),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// Publish enqueues an event. Safe for concurrent use; never blocks.
func (p *Publisher) Publish(event Event) {
	select {
	case <-p.closed:
		return
	default:
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit inbox full, dropping event",
			"kind", event.Kind,
			"event_id", event.ID,
		)
	}
}

// Run drains the inbox until the context is cancelled or Close is called.
// After Close it flushes whatever remains buffered, then returns.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.closed:
			return p.flush(ctx)
		case event := <-p.inbox:
			p.append(ctx, event)
		}
	}
}

// Close stops accepting events. Run returns after flushing the backlog.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
}

func (p *Publisher) flush(ctx context.Context) error {
	for {
		select {
		case event := <-p.inbox:
			p.append(ctx, event)
		default:
			return nil
		}
	}
}

func (p *Publisher) append(ctx context.Context, event Event) {
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to append audit event",
			"kind", event.Kind,
			"event_id", event.ID,
			"error", err,
		)
	}
}
