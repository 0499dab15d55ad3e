package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/MrEthical07/goIdentity/user"
)

// UserRepository keeps accounts in process memory. Stored state is copied
// in and out, so callers never share an aggregate through it.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]user.Params
	byEmail map[string]string
	options []user.Option
}

// NewUserRepository creates an empty repository. options are applied to
// every rebuilt account.
func NewUserRepository(options ...user.Option) *UserRepository {
	return &UserRepository{
		byID:    make(map[string]user.Params),
		byEmail: make(map[string]string),
		options: options,
	}
}

// Save stores the account. A different account already holding the email
// yields user.ErrEmailAlreadyRegistered.
func (r *UserRepository) Save(_ context.Context, account *user.Account) error {
	p := account.Params()

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[p.Email]; ok && owner != p.ID {
		return user.ErrEmailAlreadyRegistered
	}
	if prev, ok := r.byID[p.ID]; ok && prev.Email != p.Email {
		delete(r.byEmail, prev.Email)
	}
	p.Multifactor = slices.Clone(p.Multifactor)
	r.byID[p.ID] = p
	r.byEmail[p.Email] = p.ID
	return nil
}

// FindByID loads an account by id.
func (r *UserRepository) FindByID(_ context.Context, id string) (*user.Account, error) {
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.build(p)
}

// FindByEmail loads an account by normalized email.
func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.Account, error) {
	e, err := user.NewEmail(email)
	if err != nil {
		return nil, user.ErrNotFound
	}

	r.mu.RLock()
	id, ok := r.byEmail[e.String()]
	p := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, user.ErrNotFound
	}
	return r.build(p)
}

// UpdateStatus writes status without touching the rest of the account.
func (r *UserRepository) UpdateStatus(_ context.Context, id string, status user.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	p.Status = status
	r.byID[id] = p
	return nil
}

// Len returns the number of stored accounts.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *UserRepository) build(p user.Params) (*user.Account, error) {
	p.Multifactor = slices.Clone(p.Multifactor)
	return user.Build(p, r.options...)
}
