package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/user"
	"github.com/rs/zerolog"
)

// ErrEventDelivery wraps handler failures reported while publishing the
// events of an operation that itself succeeded.
var ErrEventDelivery = errors.New("event delivery failed")

// Publisher delivers domain events. *event.Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// Deps groups flow dependencies. The root engine builds this once.
type Deps struct {
	Repository user.Repository
	Publisher  Publisher
	Logger     zerolog.Logger
}

// Persist selects when Apply writes the account back.
type Persist uint8

const (
	// PersistOnChange saves after a successful operation, or after a failed
	// one that still queued events (a block on the failed login that hit
	// the limit).
	PersistOnChange Persist = iota
	// PersistAlways saves even when the operation failed without events.
	// Multifactor code checks use it: a wrong or lapsed code changes the
	// method state.
	PersistAlways
)
