package user

import "github.com/MrEthical07/goIdentity/event"

// Activate restores an inactive account to Verified.
func (a *Account) Activate() error {
	if err := a.ready(); err != nil {
		return err
	}
	switch a.status {
	case StatusInactive:
		a.setStatus(StatusVerified)
		return nil
	case StatusDeleted:
		return ErrUserDeleted
	default:
		return ErrUserAlreadyActive
	}
}

// Deactivate parks the account as Inactive.
func (a *Account) Deactivate() error {
	if err := a.ready(); err != nil {
		return err
	}
	switch a.status {
	case StatusDeleted:
		return ErrUserDeleted
	case StatusInactive:
		return ErrUserNotActive
	}
	a.setStatus(StatusInactive)
	return nil
}

// Delete marks the account Deleted. Deleted accounts cannot log in.
func (a *Account) Delete() error {
	if err := a.ready(); err != nil {
		return err
	}
	if a.is(StatusDeleted) {
		return ErrUserDeleted
	}
	a.setStatus(StatusDeleted)
	return nil
}

// Unblock lifts a block before its window lapses.
func (a *Account) Unblock() error {
	if err := a.ready(); err != nil {
		return err
	}
	if !a.is(StatusBlocked) {
		return ErrUserNotBlocked
	}
	a.unblock()
	return nil
}

func (a *Account) block() {
	a.events.Record(event.UserBlocked{UserID: a.id})
	a.setStatus(StatusBlocked)
}

func (a *Account) unblock() {
	a.events.Record(event.UserUnblocked{UserID: a.id})
	a.setStatus(StatusVerified)
}
