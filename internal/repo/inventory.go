package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

// DecrementStock takes qty units from the book only if that many are on hand.
// It reports false when the row is missing or the stock is short; the
// conditional write is what keeps concurrent checkouts from overselling.
func (r *GormRepo) DecrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ? AND stock >= ?", bookID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) IncrementStock(ctx context.Context, bookID uuid.UUID, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) SetStock(ctx context.Context, bookID uuid.UUID, stock int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("id = ?", bookID).
		Update("stock", stock)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
