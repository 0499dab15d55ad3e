package user

import "context"

// UpdateAuthentication replaces the email, the password, or both. A new
// password is secured before it is stored. Nothing changes when any field
// is rejected.
func (a *Account) UpdateAuthentication(ctx context.Context, passwords PasswordService, email, password *string) error {
	if err := a.ready(); err != nil {
		return err
	}
	if (email == nil || *email == "") && (password == nil || *password == "") {
		return ErrAtLeastOneAuthPropertyRequired
	}

	nextEmail := a.email
	if email != nil && *email != "" {
		e, err := NewEmail(*email)
		if err != nil {
			return err
		}
		if e.Equal(a.email) {
			return ErrSameEmailUpdate
		}
		nextEmail = e
	}

	nextPassword := a.password
	if password != nil && *password != "" {
		p, err := NewPassword(*password)
		if err != nil {
			return err
		}
		nextPassword, err = p.secure(ctx, passwords)
		if err != nil {
			return err
		}
	}

	a.email = nextEmail
	a.password = nextPassword
	return nil
}

// RehashPassword re-secures plain when passwords reports the stored hash
// as outdated, and reports whether the hash changed. It is only legal after
// Authenticate accepted plain on this instance.
func (a *Account) RehashPassword(ctx context.Context, passwords PasswordService, plain string) (bool, error) {
	if err := a.ready(); err != nil {
		return false, err
	}
	if !a.passwordChecked {
		return false, ErrInvalidCredentials
	}
	upgrader, ok := passwords.(PasswordUpgrader)
	if !ok {
		return false, nil
	}
	stale, err := upgrader.NeedsUpgrade(a.password.Hash())
	if err != nil || !stale {
		return false, err
	}

	hash, err := passwords.Secure(ctx, plain)
	if err != nil {
		return false, err
	}
	next, err := SecuredPassword(hash)
	if err != nil {
		return false, err
	}
	a.password = next
	return true, nil
}

// UpdateInformation replaces the profile fields present in u.
func (a *Account) UpdateInformation(u InformationUpdate) error {
	if err := a.ready(); err != nil {
		return err
	}
	next, err := a.information.apply(u)
	if err != nil {
		return err
	}
	a.information = next
	return nil
}
