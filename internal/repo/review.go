package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *GormRepo) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return first[models.Review](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ReviewExists(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) DeleteReview(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ListReviews(ctx context.Context, bookID uuid.UUID, offset, limit int) (int64, []models.Review, error) {
	q := r.DB.WithContext(ctx).Model(&models.Review{}).Where("book_id = ?", bookID)
	return page[models.Review](q, "created_at DESC, id DESC", offset, limit)
}

// RatingStats averages in SQL; COALESCE keeps the average at 0 for a book without reviews.
func (r *GormRepo) RatingStats(ctx context.Context, bookID uuid.UUID) (models.RatingStats, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("book_id = ?", bookID).
		Scan(&row).Error
	if err != nil {
		return models.RatingStats{}, err
	}
	return models.RatingStats{Average: row.Average, Count: row.Count}, nil
}
