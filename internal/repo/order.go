package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("book_id ASC") }).
		Where("id = ?", id).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// LockOrder loads the order FOR UPDATE together with its items.
func (r *GormRepo) LockOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&o).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("order_id = ?", id).
		Order("book_id ASC").
		Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderStatus moves the order from -> to. It reports false when the
// order is no longer in status from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID *uuid.UUID, status *models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	orders := make([]models.Order, 0, limit)
	if err := q.Session(&gorm.Session{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("book_id ASC") }).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}
