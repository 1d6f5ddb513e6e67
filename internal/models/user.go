package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"            json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"  json:"username"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	Role         string    `gorm:"not null"              json:"role"`
	CreatedAt    time.Time `                             json:"created_at"`
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"primaryKey"            json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"  json:"-"`
	UserID    uuid.UUID `gorm:"index;not null"        json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"  json:"jti"`
	ExpiresAt int64     `gorm:"not null"              json:"expires_at"`
	Revoked   bool      `gorm:"default:false"         json:"revoked"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Author{}, &Publisher{}, &Category{}, &Book{},
		&CartItem{}, &Order{}, &OrderItem{}, &Review{},
		&User{}, &RefreshToken{},
	}
}
