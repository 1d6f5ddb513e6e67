package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

const publishTimeout = 5 * time.Second

type OrderEvent struct {
	Type           string             `json:"type"`
	OrderID        uuid.UUID          `json:"order_id"`
	UserID         uuid.UUID          `json:"user_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	TotalAmount    string             `json:"total_amount"`
	Items          []OrderEventItem   `json:"items,omitempty"`
	At             time.Time          `json:"at"`
}

type OrderEventItem struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

type CartEvent struct {
	Type     string     `json:"type"`
	UserID   uuid.UUID  `json:"user_id"`
	BookID   *uuid.UUID `json:"book_id,omitempty"`
	Quantity int        `json:"quantity,omitempty"`
	At       time.Time  `json:"at"`
}

type BookEvent struct {
	Type   string    `json:"type"`
	BookID uuid.UUID `json:"book_id"`
	Title  string    `json:"title,omitempty"`
	Price  string    `json:"price,omitempty"`
	Stock  int       `json:"stock"`
	At     time.Time `json:"at"`
}

func newOrderEvent(typ string, o *models.Order, prev models.OrderStatus) OrderEvent {
	items := make([]OrderEventItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderEventItem{BookID: it.BookID, Quantity: it.Quantity})
	}
	return OrderEvent{
		Type:           typ,
		OrderID:        o.ID,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: prev,
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Items:          items,
		At:             time.Now().UTC(),
	}
}

func newBookEvent(typ string, b *models.Book) BookEvent {
	return BookEvent{
		Type:   typ,
		BookID: b.ID,
		Title:  b.Title,
		Price:  b.Price.StringFixed(2),
		Stock:  b.Stock,
		At:     time.Now().UTC(),
	}
}

// publish is best effort and runs after commit. A broker outage never undoes
// a completed operation; it delays the caller by at most publishTimeout.
func publish(ctx context.Context, p events.Publisher, topic, key string, event any) {
	if p == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(pctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "key", key, "error", err)
	}
}
