package user

import (
	"strings"

	"github.com/MrEthical07/goIdentity/mfa"
)

// AddMultifactorMethod registers a new inactive method. The method still
// needs StartMultifactorVerification and CompleteMultifactorVerification
// before it can be activated.
func (a *Account) AddMultifactorMethod(kind mfa.Kind, contact string) (*mfa.Method, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	if len(a.methods) >= MaxMultifactorMethods {
		return nil, ErrMultifactorMethodsExceeded
	}

	candidate := mfa.Channel{Kind: kind, Contact: strings.TrimSpace(contact)}
	for _, existing := range a.methods {
		if existing.Channel().SameContact(candidate) {
			return nil, ErrMultifactorRepeatedContact
		}
	}

	m, err := mfa.Create(kind, contact, a.policy)
	if err != nil {
		return nil, err
	}

	a.methods = append(a.methods, m)
	return m, nil
}

// ValidateMultifactorCode checks code against the active method's login
// challenge. The method's state changes even when validation fails, so the
// caller persists the account either way.
func (a *Account) ValidateMultifactorCode(code string) error {
	if err := a.ready(); err != nil {
		return err
	}
	m := a.activeMethod()
	if m == nil {
		return ErrNoMultifactorCodeToValidate
	}
	return m.Validate(code)
}

// Multifactor returns the method with the given ID.
func (a *Account) Multifactor(id string) (*mfa.Method, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	for _, m := range a.methods {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, ErrMultifactorNotFound
}

// ActiveMultifactor returns the active method, or nil.
func (a *Account) ActiveMultifactor() *mfa.Method {
	if a == nil {
		return nil
	}
	return a.activeMethod()
}

// StartMultifactorVerification issues the ownership code for method id.
func (a *Account) StartMultifactorVerification(id string) (mfa.Code, error) {
	m, err := a.Multifactor(id)
	if err != nil {
		return mfa.Code{}, err
	}
	return m.StartVerification()
}

// CompleteMultifactorVerification marks method id verified.
func (a *Account) CompleteMultifactorVerification(id, code string) error {
	m, err := a.Multifactor(id)
	if err != nil {
		return err
	}
	return m.CompleteVerification(code)
}

// ActivateMultifactor makes method id the login challenge. An account has
// at most one active method; activating another while one is active is
// rejected with ALREADY_ACTIVE.
func (a *Account) ActivateMultifactor(id string) error {
	m, err := a.Multifactor(id)
	if err != nil {
		return err
	}
	if active := a.activeMethod(); active != nil && active != m {
		return mfa.ErrAlreadyActive.WithDetail("multifactor", "deactivate "+active.ID()+" first")
	}
	return m.Activate()
}

// DeactivateMultifactor stops challenging method id during login.
func (a *Account) DeactivateMultifactor(id string) error {
	m, err := a.Multifactor(id)
	if err != nil {
		return err
	}
	return m.Deactivate()
}
