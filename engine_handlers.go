package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/internal/stores"
	"github.com/MrEthical07/goIdentity/user"
)

// subscribe wires the reactions to account events. Handlers run after the
// account that recorded the events was persisted.
func (e *Engine) subscribe() {
	e.bus.Subscribe(event.NameUserStatusChanged, e.onStatusChanged)
	e.bus.Subscribe(event.NameUserBlocked, e.onBlocked)
	e.bus.Subscribe(event.NameUserUnblocked, e.onUnblocked)
	e.bus.Subscribe(event.NameUserAuthenticated, e.onAuthenticated)
	e.bus.Subscribe(event.NameUserInvalidCredentials, e.onInvalidCredentials)
	e.bus.Subscribe(event.NameInitializedUserVerification, e.onVerificationRequested)
	e.bus.Subscribe(event.NameMultifactorInitialized, e.onMultifactorInitialized)
}

func (e *Engine) onStatusChanged(ctx context.Context, ev event.Event) error {
	changed, ok := ev.(event.UserStatusChanged)
	if !ok {
		return nil
	}
	status, err := user.ParseStatus(changed.Status)
	if err != nil {
		return err
	}
	return e.repository.UpdateStatus(ctx, changed.UserID, status)
}

func (e *Engine) onBlocked(ctx context.Context, ev event.Event) error {
	userID := ev.AggregateID()
	if err := e.blocker.BlockUser(ctx, userID); err != nil {
		return err
	}
	e.metricInc(MetricAccountBlocked)
	e.logger.Warn().Str("user_id", userID).Str("event", string(ev.EventName())).Msg("account blocked")
	return e.throttle.ResetAttempts(ctx, userID)
}

// onUnblocked clears the block marker too, so an admin unblock and the
// blocker agree. After a lapsed block the marker is already gone.
func (e *Engine) onUnblocked(ctx context.Context, ev event.Event) error {
	userID := ev.AggregateID()
	e.metricInc(MetricAccountUnblocked)
	if err := e.blocker.Clear(ctx, userID); err != nil {
		return err
	}
	return e.throttle.ResetAttempts(ctx, userID)
}

func (e *Engine) onAuthenticated(ctx context.Context, ev event.Event) error {
	return e.throttle.ResetAttempts(ctx, ev.AggregateID())
}

// onInvalidCredentials only observes: the aggregate already counted the
// failure on the throttle.
func (e *Engine) onInvalidCredentials(_ context.Context, ev event.Event) error {
	e.metricInc(MetricInvalidCredentials)
	e.logger.Info().Str("user_id", ev.AggregateID()).Str("event", string(ev.EventName())).Msg("invalid credentials")
	return nil
}

func (e *Engine) onVerificationRequested(ctx context.Context, ev event.Event) error {
	requested, ok := ev.(event.InitializedUserVerification)
	if !ok {
		return nil
	}

	code, err := e.verifications.InitializeUserVerification(ctx, requested.UserID)
	if errors.Is(err, stores.ErrVerificationInProgress) {
		return user.ErrVerificationInProgress
	}
	if err != nil {
		return err
	}

	if err := e.notifier.SendVerificationCode(ctx, requested.Email, code); err != nil {
		e.metricInc(MetricNotificationFailure)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

func (e *Engine) onMultifactorInitialized(ctx context.Context, ev event.Event) error {
	initialized, ok := ev.(event.MultifactorInitialized)
	if !ok {
		return nil
	}

	account, err := e.repository.FindByID(ctx, initialized.UserID)
	if err != nil {
		return err
	}
	method, err := account.Multifactor(initialized.MultifactorID)
	if err != nil {
		return err
	}
	code, ok := method.PendingCode()
	if !ok {
		return errors.New("multifactor method holds no code to deliver")
	}

	if err := e.notifier.SendMultifactorCode(ctx, method.Kind(), method.Contact(), code.Value); err != nil {
		e.metricInc(MetricNotificationFailure)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}
