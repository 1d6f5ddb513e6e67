package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is immutable after creation apart from Status and UpdatedAt.
type Order struct {
	ID              uuid.UUID       `gorm:"primaryKey"                        json:"id"`
	UserID          uuid.UUID       `gorm:"index;not null"                    json:"user_id"`
	ShippingAddress string          `gorm:"not null"                          json:"shipping_address"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null"       json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index"   json:"status"`
	Items           []OrderItem     `gorm:"constraint:OnDelete:CASCADE"       json:"items"`
	CreatedAt       time.Time       `gorm:"index"                             json:"created_at"`
	UpdatedAt       time.Time       `                                         json:"updated_at"`
}

// OrderItem keeps the title and unit price the book had when the order was placed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"primaryKey"                    json:"id"`
	OrderID   uuid.UUID       `gorm:"index;not null"                json:"order_id"`
	BookID    uuid.UUID       `gorm:"index;not null"                json:"book_id"`
	BookTitle string          `gorm:"not null"                      json:"title"`
	Quantity  int             `gorm:"not null;check:quantity > 0"   json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(12,2);not null"   json:"line_total"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Recalculate derives every line total and the order total from quantities and unit prices.
func (o *Order) Recalculate() {
	total := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		it.LineTotal = it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(it.LineTotal)
	}
	o.TotalAmount = total
}
