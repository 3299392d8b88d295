// Package events delivers domain events to registered listeners after a
// transaction commits. The engine hands events over only on commit, so
// listeners never hear about rolled-back work.
package events

import (
	"context"
	"log/slog"
	"sync"

	"kycledger/internal/ledger/models"
)

// Listener is an external consumer of committed domain events. Listener
// errors are logged and do not unwind the already-committed transaction.
type Listener interface {
	OnEvent(ctx context.Context, event models.Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(ctx context.Context, event models.Event)

func (f ListenerFunc) OnEvent(ctx context.Context, event models.Event) { f(ctx, event) }

// Emitter fans committed events out to listeners in emission order. By
// default delivery is synchronous; WithAsyncBuffer moves it onto a single
// worker goroutine that preserves order and drains on Close.
type Emitter struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger

	buf    chan models.Event
	wg     sync.WaitGroup
	closed chan struct{}
}

type Option func(*Emitter)

// WithAsyncBuffer enables asynchronous delivery through a buffer of the
// given size. When the buffer is full events are dropped with a warning;
// durability belongs to the listener, not the emitter.
func WithAsyncBuffer(size int) Option {
	return func(e *Emitter) {
		if size > 0 {
			e.buf = make(chan models.Event, size)
		}
	}
}

// WithLogger attaches a structured logger for delivery diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) { e.logger = logger }
}

func New(opts ...Option) *Emitter {
	e := &Emitter{
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.buf != nil {
		e.wg.Add(1)
		go e.drain()
	}
	return e
}

// Register adds a listener. Listeners registered after an event was emitted
// do not receive it retroactively.
func (e *Emitter) Register(l Listener) {
	if l == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// Emit delivers the events in order. The engine calls this once per
// committed transaction with that transaction's events.
func (e *Emitter) Emit(ctx context.Context, evts ...models.Event) {
	for _, evt := range evts {
		if e.buf == nil {
			e.deliver(ctx, evt)
			continue
		}
		select {
		case e.buf <- evt:
		default:
			e.logger.Warn("event buffer full, dropping event", "event", evt.EventName())
		}
	}
}

// Close stops the async worker after draining buffered events. Synchronous
// emitters close immediately.
func (e *Emitter) Close() {
	select {
	case <-e.closed:
		return
	default:
	}
	close(e.closed)
	if e.buf != nil {
		close(e.buf)
		e.wg.Wait()
	}
}

func (e *Emitter) drain() {
	defer e.wg.Done()
	for evt := range e.buf {
		e.deliver(context.Background(), evt)
	}
}

func (e *Emitter) deliver(ctx context.Context, evt models.Event) {
	e.mu.RLock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, l := range listeners {
		l.OnEvent(ctx, evt)
	}
}
