package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/MrEthical07/goIdentity/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrUnknownEnum is returned when a value or id is missing from a lookup.
	ErrUnknownEnum = errors.New("enum value not synced")
	// ErrInvalidID is returned for account or method ids that are not UUIDs.
	ErrInvalidID = errors.New("id is not a uuid")
)

func toUserModel(p user.Params, lookups Lookups, now time.Time) (userModel, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return userModel{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	statusID, err := lookups.UserStatuses.ID(string(p.Status))
	if err != nil {
		return userModel{}, err
	}
	return userModel{
		UserID:       id,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		StatusID:     statusID,
		FirstName:    p.Information.FirstName,
		LastName:     p.Information.LastName,
		Gender:       p.Information.Gender,
		Phone:        p.Information.Phone,
		City:         p.Information.City,
		Country:      p.Information.Country,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    now,
	}, nil
}

// toMultifactorModel maps the method at position in the account's
// registration order.
func toMultifactorModel(userID uuid.UUID, position int, p mfa.Params, lookups Lookups) (multifactorModel, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return multifactorModel{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	methodID, err := lookups.MFAMethods.ID(string(p.Kind))
	if err != nil {
		return multifactorModel{}, err
	}
	statusID, err := lookups.MFAStatuses.ID(string(p.Status))
	if err != nil {
		return multifactorModel{}, err
	}
	return multifactorModel{
		MultifactorID: id,
		UserID:        userID,
		Position:      position,
		MethodID:      methodID,
		StatusID:      statusID,
		Contact:       p.Contact,
		Active:        p.Active,
		Verified:      p.Verified,
		Code:          p.Code,
		CodeExpiresAt: optionalTime(p.CodeExpiresAt),
		LastUsedAt:    optionalTime(p.LastUsedAt),
	}, nil
}

func toParams(rec userModel, methods []multifactorModel, lookups Lookups) (user.Params, error) {
	status, err := lookups.UserStatuses.Value(rec.StatusID)
	if err != nil {
		return user.Params{}, err
	}
	p := user.Params{
		ID:           rec.UserID.String(),
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Status:       user.Status(status),
		Information: user.Information{
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Gender:    rec.Gender,
			Phone:     rec.Phone,
			City:      rec.City,
			Country:   rec.Country,
		},
		CreatedAt: rec.CreatedAt,
	}
	for _, m := range methods {
		kind, err := lookups.MFAMethods.Value(m.MethodID)
		if err != nil {
			return user.Params{}, err
		}
		mstatus, err := lookups.MFAStatuses.Value(m.StatusID)
		if err != nil {
			return user.Params{}, err
		}
		p.Multifactor = append(p.Multifactor, mfa.Params{
			ID:            m.MultifactorID.String(),
			Kind:          mfa.Kind(kind),
			Contact:       m.Contact,
			Active:        m.Active,
			Verified:      m.Verified,
			Status:        mfa.Status(mstatus),
			Code:          m.Code,
			CodeExpiresAt: derefTime(m.CodeExpiresAt),
			LastUsedAt:    derefTime(m.LastUsedAt),
		})
	}
	return p, nil
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
