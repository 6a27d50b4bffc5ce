// Package publisher captures structured audit events. It is append-only and
// uses the storage layer for persistence so tests can swap sinks easily.
package publisher

import (
	"context"
	"sync"
	"time"

	audit "custodia/pkg/platform/audit"
)

// Sink receives a copy of every event in addition to the primary store.
// Sinks are best-effort: a sink failure never fails the business operation.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Publisher forwards events to a Store, either synchronously or through a
// buffered background worker. Emission never fails the business operation:
// when the async buffer is full the event is dropped rather than blocking
// the caller.
type Publisher struct {
	store audit.Store
	sinks []Sink

	buffer chan audit.Event
	done   chan struct{}
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a buffered channel
// drained by a single background worker.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// WithSink fans events out to an additional best-effort sink (e.g. Kafka).
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sink)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		go p.drain()
	}
	return p
}

// Emit records an audit event, stamping the timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.buffer == nil {
		if err := p.store.Append(ctx, event); err != nil {
			return err
		}
		p.fanOut(ctx, event)
		return nil
	}
	select {
	case p.buffer <- event:
	default:
		// Buffer full: drop rather than block the business operation.
	}
	return nil
}

func (p *Publisher) fanOut(ctx context.Context, event audit.Event) {
	for _, sink := range p.sinks {
		_ = sink.Publish(ctx, event)
	}
}

// List returns events for a given subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

// Close stops the background worker, draining any buffered events first.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			<-p.done
		}
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		ctx := context.Background()
		_ = p.store.Append(ctx, event)
		p.fanOut(ctx, event)
	}
}
