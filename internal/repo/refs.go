package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	return first[models.Author](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ListAuthors(ctx context.Context, offset, limit int) (int64, []models.Author, error) {
	return page[models.Author](r.DB.WithContext(ctx).Model(&models.Author{}), "name ASC, id ASC", offset, limit)
}

func (r *GormRepo) AuthorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists[models.Author](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) GetPublisher(ctx context.Context, id uuid.UUID) (*models.Publisher, error) {
	return first[models.Publisher](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ListPublishers(ctx context.Context, offset, limit int) (int64, []models.Publisher, error) {
	return page[models.Publisher](r.DB.WithContext(ctx).Model(&models.Publisher{}), "name ASC, id ASC", offset, limit)
}

func (r *GormRepo) PublisherExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists[models.Publisher](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return first[models.Category](r.DB.WithContext(ctx), id)
}

func (r *GormRepo) ListCategories(ctx context.Context, offset, limit int) (int64, []models.Category, error) {
	return page[models.Category](r.DB.WithContext(ctx).Model(&models.Category{}), "name ASC, id ASC", offset, limit)
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists[models.Category](r.DB.WithContext(ctx), id)
}

// Create inserts any catalog reference row (author, publisher, category).
func (r *GormRepo) Create(ctx context.Context, v any) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

// UpdateFields patches the row of model identified by id and reloads it into model.
func (r *GormRepo) UpdateFields(ctx context.Context, model any, id uuid.UUID, fields map[string]any) error {
	db := r.DB.WithContext(ctx)
	if len(fields) > 0 {
		res := db.Model(model).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return db.Where("id = ?", id).First(model).Error
}

// DeleteRef deletes an author, publisher or category and unlinks the books
// pointing at it through column.
func (r *GormRepo) DeleteRef(ctx context.Context, model any, column string, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Book{}).Where(column+" = ?", id).Update(column, nil).Error
	})
}
