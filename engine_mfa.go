package goIdentity

import (
	"context"
	"fmt"

	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/MrEthical07/goIdentity/user"
)

// MultifactorInfo describes one registered multifactor method.
type MultifactorInfo struct {
	ID       string
	Kind     mfa.Kind
	Contact  string
	Active   bool
	Verified bool
}

// AddMultifactorMethod registers an inactive, unverified method and
// returns its ID. An account holds at most user.MaxMultifactorMethods and
// each contact once.
func (e *Engine) AddMultifactorMethod(ctx context.Context, userID string, kind mfa.Kind, contact string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}
	var methodID string
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		m, err := a.AddMultifactorMethod(kind, contact)
		if err != nil {
			return err
		}
		methodID = m.ID()
		return nil
	})
	if err != nil {
		return "", e.delivered(err)
	}
	return methodID, nil
}

// StartMultifactorVerification sends the ownership code of method
// methodID to its contact.
func (e *Engine) StartMultifactorVerification(ctx context.Context, userID, methodID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	var (
		code   mfa.Code
		method *mfa.Method
	)
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		m, err := a.Multifactor(methodID)
		if err != nil {
			return err
		}
		code, err = a.StartMultifactorVerification(methodID)
		method = m
		return err
	})
	if err != nil {
		return e.delivered(err)
	}

	if err := e.notifier.SendMultifactorCode(ctx, method.Kind(), method.Contact(), code.Value); err != nil {
		e.metricInc(MetricNotificationFailure)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

// CompleteMultifactorVerification marks method methodID verified. A lapsed
// code is discarded.
func (e *Engine) CompleteMultifactorVerification(ctx context.Context, userID, methodID, code string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistAlways, func(a *user.Account) error {
		return a.CompleteMultifactorVerification(methodID, code)
	})
	return e.delivered(err)
}

// ActivateMultifactor makes a verified method the login challenge.
func (e *Engine) ActivateMultifactor(ctx context.Context, userID, methodID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.ActivateMultifactor(methodID)
	})
	return e.delivered(err)
}

// DeactivateMultifactor stops challenging logins with methodID.
func (e *Engine) DeactivateMultifactor(ctx context.Context, userID, methodID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.flows.Run(ctx, userID, flows.PersistOnChange, func(a *user.Account) error {
		return a.DeactivateMultifactor(methodID)
	})
	return e.delivered(err)
}

// MultifactorMethods lists the methods registered on the account.
func (e *Engine) MultifactorMethods(ctx context.Context, userID string) ([]MultifactorInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	account, err := e.flows.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	methods := account.MultifactorMethods()
	out := make([]MultifactorInfo, 0, len(methods))
	for _, m := range methods {
		out = append(out, MultifactorInfo{
			ID:       m.ID(),
			Kind:     m.Kind(),
			Contact:  m.Contact(),
			Active:   m.Active(),
			Verified: m.Verified(),
		})
	}
	return out, nil
}
