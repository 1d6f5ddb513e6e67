package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type CreateBookRequest struct {
	Title       string          `json:"title"`
	ISBN        *string         `json:"isbn"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	AuthorID    *uuid.UUID      `json:"author_id"`
	PublisherID *uuid.UUID      `json:"publisher_id"`
	CategoryID  *uuid.UUID      `json:"category_id"`
}

type PatchBookRequest struct {
	Title       *string          `json:"title"`
	ISBN        *string          `json:"isbn"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	AuthorID    *uuid.UUID       `json:"author_id"`
	PublisherID *uuid.UUID       `json:"publisher_id"`
	CategoryID  *uuid.UUID       `json:"category_id"`
}

type SetStockRequest struct {
	Stock int `json:"stock"`
}

type AuthorRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

type PublisherRequest struct {
	Name    *string `json:"name"`
	Website *string `json:"website"`
}

type CategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddToCartRequest struct {
	BookID   uuid.UUID `json:"book_id"`
	Quantity int       `json:"quantity"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type OrderItemResponse struct {
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	UserID          uuid.UUID           `json:"user_id"`
	Status          models.OrderStatus  `json:"status"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	ShippingAddress string              `json:"shipping_address"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Items           []OrderItemResponse `json:"items"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			BookID:    it.BookID,
			Title:     it.BookTitle,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return OrderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           items,
	}
}

func NewOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

type CartLineResponse struct {
	BookID    uuid.UUID       `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   int             `json:"in_stock"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type BookResponse struct {
	models.Book
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

type StockErrorResponse struct {
	Message   string    `json:"message"`
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}
