package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// WithTx returns a repo whose queries run inside tx.
func (r *GormRepo) WithTx(tx *gorm.DB) *GormRepo {
	return &GormRepo{DB: tx}
}

// Transaction runs fn in a database transaction. Everything fn does through
// the repo it receives commits or rolls back together.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(models.All()...)
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func first[T any](db *gorm.DB, id any) (*T, error) {
	var out T
	if err := db.Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func exists[T any](db *gorm.DB, id any) (bool, error) {
	var n int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func page[T any](q *gorm.DB, order string, offset, limit int) (int64, []T, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	items := make([]T, 0, limit)
	if err := q.Session(&gorm.Session{}).Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
