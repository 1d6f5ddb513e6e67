package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

var ErrCartQuantityLimit = errors.New("cart quantity limit exceeded")

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockCart reads the cart rows FOR UPDATE. Call it inside a transaction.
func (r *GormRepo) LockCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart merges qty into the existing (user, book) row or creates it.
// A merge that would pass models.MaxCartQuantity returns ErrCartQuantityLimit.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	if item.Quantity > models.MaxCartQuantity {
		return ErrCartQuantityLimit
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND book_id = ? AND quantity <= ?", item.UserID, item.BookID, models.MaxCartQuantity-item.Quantity).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND book_id = ?", item.UserID, item.BookID).First(item).Error
		}

		var n int64
		if err := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND book_id = ?", item.UserID, item.BookID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrCartQuantityLimit
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, bookID uuid.UUID, qty int) (*models.CartItem, error) {
	db := r.DB.WithContext(ctx)
	res := db.Model(&models.CartItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("quantity", qty)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var item models.CartItem
	if err := db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, bookID uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
