package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Author struct {
	ID        uuid.UUID `gorm:"primaryKey"      json:"id"`
	Name      string    `gorm:"not null;index"  json:"name"`
	Bio       string    `                       json:"bio"`
	CreatedAt time.Time `                       json:"created_at"`
}

type Publisher struct {
	ID        uuid.UUID `gorm:"primaryKey"      json:"id"`
	Name      string    `gorm:"not null;index"  json:"name"`
	Website   string    `                       json:"website"`
	CreatedAt time.Time `                       json:"created_at"`
}

type Category struct {
	ID          uuid.UUID `gorm:"primaryKey"          json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `                           json:"description"`
	CreatedAt   time.Time `                           json:"created_at"`
}

// Book references its author, publisher and category by id only.
type Book struct {
	ID          uuid.UUID       `gorm:"primaryKey"                       json:"id"`
	Title       string          `gorm:"not null;index"                   json:"title"`
	ISBN        *string         `gorm:"uniqueIndex"                      json:"isbn,omitempty"`
	Description string          `                                        json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"      json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	AuthorID    *uuid.UUID      `gorm:"index"                            json:"author_id,omitempty"`
	PublisherID *uuid.UUID      `gorm:"index"                            json:"publisher_id,omitempty"`
	CategoryID  *uuid.UUID      `gorm:"index"                            json:"category_id,omitempty"`
	CreatedAt   time.Time       `                                        json:"created_at"`
	UpdatedAt   time.Time       `                                        json:"updated_at"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (p *Publisher) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
