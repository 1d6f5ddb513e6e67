package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type BookFilter struct {
	AuthorID    *uuid.UUID
	PublisherID *uuid.UUID
	CategoryID  *uuid.UUID
}

func (r *GormRepo) GetBook(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	return first[models.Book](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) BookExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists[models.Book](r.DB.WithContext(ctx), id)
}

// GetBooksByIDs returns the books keyed by id; ids that do not exist are absent.
func (r *GormRepo) GetBooksByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Book, error) {
	out := make(map[uuid.UUID]models.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var books []models.Book
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&books).Error; err != nil {
		return nil, err
	}
	for _, b := range books {
		out[b.ID] = b
	}
	return out, nil
}

func (r *GormRepo) ListBooks(ctx context.Context, f BookFilter, offset, limit int) (int64, []models.Book, error) {
	q := r.DB.WithContext(ctx).Model(&models.Book{})
	if f.AuthorID != nil {
		q = q.Where("author_id = ?", *f.AuthorID)
	}
	if f.PublisherID != nil {
		q = q.Where("publisher_id = ?", *f.PublisherID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	return page[models.Book](q, "title ASC, id ASC", offset, limit)
}

// SearchBooks is the database fallback used when no search index is configured.
func (r *GormRepo) SearchBooks(ctx context.Context, text string, offset, limit int) (int64, []models.Book, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(text)) + "%"
	q := r.DB.WithContext(ctx).Model(&models.Book{}).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	return page[models.Book](q, "title ASC, id ASC", offset, limit)
}

func (r *GormRepo) CreateBook(ctx context.Context, b *models.Book) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

// UpdateBook writes only the given columns so that concurrent stock changes
// are never overwritten by a stale copy of the row.
func (r *GormRepo) UpdateBook(ctx context.Context, id uuid.UUID, fields map[string]any) (*models.Book, error) {
	db := r.DB.WithContext(ctx)
	if len(fields) > 0 {
		res := db.Model(&models.Book{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return first[models.Book](db, id)
}

// DeleteBook removes the book with its cart entries and reviews. Order items
// keep their snapshot and are left alone.
func (r *GormRepo) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Book{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("book_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("book_id = ?", id).Delete(&models.Review{}).Error
	})
}
