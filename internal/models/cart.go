package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxCartQuantity caps one cart line, merged adds included.
const MaxCartQuantity = 1000

type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                          json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_book;not null"  json:"user_id"`
	BookID    uuid.UUID `gorm:"uniqueIndex:idx_user_book;not null"  json:"book_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `                                           json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
