package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/user"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository persists accounts and their multifactor methods. It
// implements user.Repository.
type UserRepository struct {
	db      *gorm.DB
	lookups Lookups
	options []user.Option
	logger  zerolog.Logger
	now     func() time.Time
}

// NewUserRepository creates a repository. lookups come from SyncEnums and
// options are applied to every rebuilt account.
func NewUserRepository(db *gorm.DB, lookups Lookups, logger zerolog.Logger, options ...user.Option) *UserRepository {
	return &UserRepository{
		db:      db,
		lookups: lookups,
		options: options,
		logger:  logger.With().Str("module", "postgres").Str("repository", "users").Logger(),
		now:     time.Now,
	}
}

// Save upserts the account row and replaces its multifactor methods in one
// transaction, keeping their registration order. A duplicate email yields user.ErrEmailAlreadyRegistered.
func (r *UserRepository) Save(ctx context.Context, account *user.Account) error {
	p := account.Params()
	rec, err := toUserModel(p, r.lookups, r.now())
	if err != nil {
		return err
	}

	methods := make([]multifactorModel, 0, len(p.Multifactor))
	keep := make([]uuid.UUID, 0, len(p.Multifactor))
	for i, mp := range p.Multifactor {
		m, err := toMultifactorModel(rec.UserID, i, mp, r.lookups)
		if err != nil {
			return err
		}
		methods = append(methods, m)
		keep = append(keep, m.MultifactorID)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "status_id", "first_name", "last_name", "gender", "phone", "city", "country", "updated_at"}),
		}).Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailAlreadyRegistered
			}
			return err
		}

		stale := tx.Where("user_id = ?", rec.UserID)
		if len(keep) > 0 {
			stale = stale.Where("multifactor_id NOT IN ?", keep)
		}
		if err := stale.Delete(&multifactorModel{}).Error; err != nil {
			return err
		}

		if len(methods) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "multifactor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "status_id", "contact", "active", "verified", "code", "code_expires_at", "last_used_at"}),
		}).Create(&methods).Error
	})
	if err != nil {
		r.logger.Error().Err(err).Str("operation", "save").Str("user_id", p.ID).Msg("save account failed")
		return err
	}
	return nil
}

// FindByID loads an account by id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return r.find(ctx, "user_id = ?", uid)
}

// FindByEmail loads an account by normalized email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.Account, error) {
	e, err := user.NewEmail(email)
	if err != nil {
		return nil, user.ErrNotFound
	}
	return r.find(ctx, "email = ?", e.String())
}

func (r *UserRepository) find(ctx context.Context, query string, arg any) (*user.Account, error) {
	var rec userModel
	if err := r.db.WithContext(ctx).Where(query, arg).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}

	var methods []multifactorModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", rec.UserID).Order("position").Order("multifactor_id").Find(&methods).Error; err != nil {
		return nil, err
	}

	p, err := toParams(rec, methods, r.lookups)
	if err != nil {
		return nil, err
	}
	return user.Build(p, r.options...)
}

// UpdateStatus writes status without touching the rest of the row.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status user.Status) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.ErrNotFound
	}
	statusID, err := r.lookups.UserStatuses.ID(string(status))
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", uid).
		Updates(map[string]any{"status_id": statusID, "updated_at": r.now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	r.logger.Debug().Str("operation", "update_status").Str("user_id", id).Str("status", string(status)).Msg("account status updated")
	return nil
}
