package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler reacts to a published event.
type Handler func(ctx context.Context, e Event) error

// Bus is the in-process publisher for domain events.
//
// Handlers subscribed to a name run synchronously, in subscription order,
// on the publishing goroutine. A failing handler does not stop the ones
// after it; all failures are joined into the error returned by Publish.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[Name][]Handler
	dispatcher *Dispatcher
	logger     zerolog.Logger
}

// NewBus creates a bus. dispatcher may be nil.
func NewBus(dispatcher *Dispatcher, logger zerolog.Logger) *Bus {
	return &Bus{
		handlers:   make(map[Name][]Handler),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Subscribe registers h for events named name.
func (b *Bus) Subscribe(name Name, h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], h)
	b.mu.Unlock()
}

// Publish delivers events in order.
func (b *Bus) Publish(ctx context.Context, events ...Event) error {
	if b == nil || len(events) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, e := range events {
		if e == nil {
			continue
		}

		b.mu.RLock()
		handlers := b.handlers[e.EventName()]
		b.mu.RUnlock()

		for _, h := range handlers {
			if err := h(ctx, e); err != nil {
				b.logger.Warn().
					Err(err).
					Str("event", string(e.EventName())).
					Str("user_id", e.AggregateID()).
					Msg("event handler failed")
				errs = append(errs, fmt.Errorf("%s: %w", e.EventName(), err))
			}
		}

		b.dispatcher.Emit(ctx, Record{
			Timestamp: time.Now().UTC(),
			Name:      e.EventName(),
			UserID:    e.AggregateID(),
			Payload:   e,
		})
	}

	return errors.Join(errs...)
}

// Dropped reports events the async dispatcher discarded under backpressure.
func (b *Bus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dispatcher.Dropped()
}

// Close stops the async dispatcher after draining it.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.dispatcher.Close()
}
