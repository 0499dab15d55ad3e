package postgres

import (
	"time"

	"github.com/google/uuid"
)

const (
	userStatusTable = "user_statuses"
	mfaMethodTable  = "mfa_methods"
	mfaStatusTable  = "mfa_statuses"
)

// enumModel is the row shape shared by every enum table.
type enumModel struct {
	ID    uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Value string `gorm:"column:value;uniqueIndex;not null"`
}

// Typed enum rows give the account tables something to reference.
type (
	userStatusModel struct{ enumModel }
	mfaMethodModel  struct{ enumModel }
	mfaStatusModel  struct{ enumModel }
)

func (userStatusModel) TableName() string { return userStatusTable }
func (mfaMethodModel) TableName() string  { return mfaMethodTable }
func (mfaStatusModel) TableName() string  { return mfaStatusTable }

type userModel struct {
	UserID       uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Email        string          `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	StatusID     uint            `gorm:"column:status_id;not null"`
	Status       userStatusModel `gorm:"foreignKey:StatusID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	FirstName    string          `gorm:"column:first_name"`
	LastName     string          `gorm:"column:last_name"`
	Gender       string          `gorm:"column:gender"`
	Phone        string          `gorm:"column:phone"`
	City         string          `gorm:"column:city"`
	Country      string          `gorm:"column:country"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

type multifactorModel struct {
	MultifactorID uuid.UUID      `gorm:"column:multifactor_id;type:uuid;primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;index;not null"`
	Position      int            `gorm:"column:position;not null;default:0"`
	MethodID      uint           `gorm:"column:method_id;not null"`
	StatusID      uint           `gorm:"column:status_id;not null"`
	User          userModel      `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE"`
	Method        mfaMethodModel `gorm:"foreignKey:MethodID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Status        mfaStatusModel `gorm:"foreignKey:StatusID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Contact       string         `gorm:"column:contact;not null"`
	Active        bool           `gorm:"column:active"`
	Verified      bool           `gorm:"column:verified"`
	Code          string         `gorm:"column:code"`
	CodeExpiresAt *time.Time     `gorm:"column:code_expires_at"`
	LastUsedAt    *time.Time     `gorm:"column:last_used_at"`
}

func (multifactorModel) TableName() string { return "multifactor_methods" }
