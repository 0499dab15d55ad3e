package flows

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goIdentity/domainerr"
	"github.com/MrEthical07/goIdentity/user"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Repository != nil && s.deps.Publisher != nil
}

// Load fetches the account with the given ID.
func (s Service) Load(ctx context.Context, userID string) (*user.Account, error) {
	if !s.Initialized() {
		return nil, domainerr.ErrNotConfigured
	}
	if userID == "" {
		return nil, user.ErrNotFound
	}
	return s.deps.Repository.FindByID(ctx, userID)
}

// LoadByEmail fetches the account registered with email.
func (s Service) LoadByEmail(ctx context.Context, email string) (*user.Account, error) {
	if !s.Initialized() {
		return nil, domainerr.ErrNotConfigured
	}
	return s.deps.Repository.FindByEmail(ctx, email)
}

// Run loads userID and applies op. See Apply.
func (s Service) Run(ctx context.Context, userID string, persist Persist, op func(*user.Account) error) (*user.Account, error) {
	account, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return account, s.Apply(ctx, account, persist, op)
}

// Apply runs op on account, persists the account and then publishes every
// event op queued. Events are published whether op failed or not, so a
// block recorded by a failed login still reaches its handlers.
//
// The error of op wins over handler failures, which are then only logged.
// When op succeeded, handler failures are returned wrapped in
// ErrEventDelivery with the handler error kept in the chain.
func (s Service) Apply(ctx context.Context, account *user.Account, persist Persist, op func(*user.Account) error) error {
	if !s.Initialized() {
		return domainerr.ErrNotConfigured
	}

	opErr := op(account)
	if opErr != nil && persist == PersistOnChange && len(account.PendingEvents()) == 0 {
		return opErr
	}

	if err := s.deps.Repository.Save(ctx, account); err != nil {
		account.PullEvents()
		if opErr != nil {
			s.deps.Logger.Error().Err(err).Str("user_id", account.ID()).Msg("persist after failed operation")
			return opErr
		}
		return err
	}

	return s.publish(ctx, account, opErr)
}

// Commit persists a freshly created account and publishes its events.
func (s Service) Commit(ctx context.Context, account *user.Account) error {
	if !s.Initialized() {
		return domainerr.ErrNotConfigured
	}
	if err := s.deps.Repository.Save(ctx, account); err != nil {
		account.PullEvents()
		return err
	}
	return s.publish(ctx, account, nil)
}

func (s Service) publish(ctx context.Context, account *user.Account, opErr error) error {
	events := account.PullEvents()
	if len(events) == 0 {
		return opErr
	}

	err := s.deps.Publisher.Publish(ctx, events...)
	if err == nil {
		return opErr
	}
	if opErr != nil {
		s.deps.Logger.Warn().Err(err).Str("user_id", account.ID()).Msg("event handlers failed after rejected operation")
		return opErr
	}

	return fmt.Errorf("%w: %w", ErrEventDelivery, err)
}
