package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

// CartService never checks stock; checkout does.
type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CartLine struct {
	Item      models.CartItem
	Title     string
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	InStock   int
}

type Cart struct {
	Lines []CartLine
	Total decimal.Decimal
}

// Add merges qty into the user's line for the book, creating it if needed.
func (s *CartService) Add(ctx context.Context, userID, bookID uuid.UUID, qty int) (*models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "cart.add", "user_id", userID, "book_id", bookID)

	if bookID == uuid.Nil {
		return nil, fmt.Errorf("%w: book_id required", ErrValidation)
	}
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}

	ok, err := s.Repo.BookExists(ctx, bookID)
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	var item *models.CartItem
	// Two first adds of the same book race on the unique (user, book) index;
	// the loser retries and merges into the winner's row.
	err = retryOnce(ctx, func() error {
		item = &models.CartItem{UserID: userID, BookID: bookID, Quantity: qty}
		return s.Repo.AddToCart(ctx, item)
	}, func(err error) bool { return isTransient(err) || isUniqueViolation(err) })
	if errors.Is(err, repo.ErrCartQuantityLimit) {
		l.Warn("cart_add_rejected", "reason", "quantity limit", "quantity", qty)
		return nil, fmt.Errorf("%w: cart line may not exceed %d copies", ErrValidation, models.MaxCartQuantity)
	}
	if err != nil {
		err = classify(err)
		l.Warn("cart_add_failed", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCarts, userID.String(), CartEvent{
		Type: "cart_item_added", UserID: userID, BookID: &bookID, Quantity: qty, At: time.Now().UTC(),
	})
	l.Info("cart_item_added", "quantity", item.Quantity)
	return item, nil
}

func (s *CartService) SetQuantity(ctx context.Context, userID, bookID uuid.UUID, qty int) (*models.CartItem, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	item, err := s.Repo.SetCartQuantity(ctx, userID, bookID, qty)
	if err != nil {
		return nil, classify(err)
	}
	publish(ctx, s.Events, events.TopicCarts, userID.String(), CartEvent{
		Type: "cart_item_updated", UserID: userID, BookID: &bookID, Quantity: qty, At: time.Now().UTC(),
	})
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, userID, bookID uuid.UUID) error {
	if err := s.Repo.RemoveFromCart(ctx, userID, bookID); err != nil {
		return classify(err)
	}
	publish(ctx, s.Events, events.TopicCarts, userID.String(), CartEvent{
		Type: "cart_item_removed", UserID: userID, BookID: &bookID, At: time.Now().UTC(),
	})
	return nil
}

func (s *CartService) Items(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// List returns the cart in insertion order with current titles and prices.
// Lines whose book has been deleted are shown with a zero price.
func (s *CartService) List(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	books, err := s.Repo.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, classify(err)
	}

	cart := &Cart{Lines: make([]CartLine, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		line := CartLine{Item: it, UnitPrice: decimal.Zero, LineTotal: decimal.Zero}
		if b, ok := books[it.BookID]; ok {
			line.Title = b.Title
			line.UnitPrice = b.Price
			line.LineTotal = b.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			line.InStock = b.Stock
		}
		cart.Total = cart.Total.Add(line.LineTotal)
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	n, err := s.Repo.ClearCart(ctx, userID)
	if err != nil {
		return classify(err)
	}
	if n > 0 {
		publish(ctx, s.Events, events.TopicCarts, userID.String(), CartEvent{
			Type: "cart_cleared", UserID: userID, At: time.Now().UTC(),
		})
	}
	return nil
}

func checkQuantity(qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if qty > models.MaxCartQuantity {
		return fmt.Errorf("%w: quantity must be <= %d", ErrValidation, models.MaxCartQuantity)
	}
	return nil
}
