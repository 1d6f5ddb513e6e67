package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Review struct {
	ID        uuid.UUID `gorm:"primaryKey"                                json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_review_user_book;not null" json:"user_id"`
	BookID    uuid.UUID `gorm:"uniqueIndex:idx_review_user_book;index;not null" json:"book_id"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5"      json:"rating"`
	Comment   string    `                                                 json:"comment"`
	CreatedAt time.Time `                                                 json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type RatingStats struct {
	Average float64 `json:"average_rating"`
	Count   int64   `json:"review_count"`
}
