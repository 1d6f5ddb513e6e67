package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type InventoryService struct {
	Repo *repo.GormRepo
}

func (s *InventoryService) Reserve(ctx context.Context, bookID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	err := withRetry(ctx, func() error { return reserve(ctx, s.Repo, bookID, qty) })
	return classify(err)
}

// Release always succeeds while the book exists.
func (s *InventoryService) Release(ctx context.Context, bookID uuid.UUID, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	err := withRetry(ctx, func() error { return release(ctx, s.Repo, bookID, qty) })
	return classify(err)
}

func (s *InventoryService) SetStock(ctx context.Context, bookID uuid.UUID, stock int) (*models.Book, error) {
	l := logging.FromContext(ctx).With("svc", "inventory.set_stock", "book_id", bookID)
	if stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}

	var book *models.Book
	err := withRetry(ctx, func() error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			ok, err := tx.SetStock(ctx, bookID, stock)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: book %s", ErrNotFound, bookID)
			}
			book, err = tx.GetBook(ctx, bookID)
			return err
		})
	})
	if err != nil {
		return nil, classify(err)
	}
	l.Info("stock_set", "stock", stock)
	return book, nil
}

// reserve takes qty units of the book through r, which may be tx-scoped.
func reserve(ctx context.Context, r *repo.GormRepo, bookID uuid.UUID, qty int) error {
	ok, err := r.DecrementStock(ctx, bookID, qty)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	book, err := r.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: book %s", ErrNotFound, bookID)
		}
		return err
	}
	return &StockError{BookID: bookID, Title: book.Title, Requested: qty, Available: book.Stock}
}

func release(ctx context.Context, r *repo.GormRepo, bookID uuid.UUID, qty int) error {
	ok, err := r.IncrementStock(ctx, bookID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}
	return nil
}
