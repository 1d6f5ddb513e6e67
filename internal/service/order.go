package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// CreateOrder turns the user's cart into a pending order. Reservations, the
// order rows and the cart clear share one transaction, so a failure on any
// line leaves stock, orders and the cart exactly as they were.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, shippingAddress string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create_order", "user_id", userID)

	address := strings.TrimSpace(shippingAddress)
	if err := required("shipping_address", address); err != nil {
		return nil, err
	}

	var order *models.Order
	err := withRetry(ctx, func() error {
		order = nil
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			lines, err := tx.LockCart(ctx, userID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				return ErrEmptyCart
			}

			// One global lock order across checkouts.
			sort.Slice(lines, func(i, j int) bool {
				return lines[i].BookID.String() < lines[j].BookID.String()
			})

			ids := make([]uuid.UUID, 0, len(lines))
			for _, line := range lines {
				if err := reserve(ctx, tx, line.BookID, line.Quantity); err != nil {
					return err
				}
				ids = append(ids, line.BookID)
			}

			books, err := tx.GetBooksByIDs(ctx, ids)
			if err != nil {
				return err
			}

			o := &models.Order{
				UserID:          userID,
				ShippingAddress: address,
				Status:          models.StatusPending,
				Items:           make([]models.OrderItem, 0, len(lines)),
			}
			for _, line := range lines {
				b := books[line.BookID]
				o.Items = append(o.Items, models.OrderItem{
					BookID:    line.BookID,
					BookTitle: b.Title,
					Quantity:  line.Quantity,
					UnitPrice: b.Price,
				})
			}
			o.Recalculate()

			if err := tx.CreateOrder(ctx, o); err != nil {
				return err
			}
			if _, err := tx.ClearCart(ctx, userID); err != nil {
				return err
			}
			order = o
			return nil
		})
	})
	if err != nil {
		err = classify(err)
		var se *StockError
		if errors.As(err, &se) {
			l.Warn("create_order_failed", "reason", "insufficient stock", "book_id", se.BookID, "requested", se.Requested, "available", se.Available)
		} else {
			l.Warn("create_order_failed", "error", err)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, userID.String(), newOrderEvent("order_created", order, ""))
	l.Info("order_created", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2), "items", len(order.Items))
	return order, nil
}

// CancelOrder returns every line's quantity to stock and marks the order
// cancelled in one transaction.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.cancel_order", "order_id", orderID)

	var (
		order *models.Order
		prev  models.OrderStatus
	)
	err := withRetry(ctx, func() error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			o, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if !actor.canAccess(o.UserID) {
				return fmt.Errorf("%w: order %s", ErrForbidden, orderID)
			}
			if !models.CanTransition(o.Status, models.StatusCancelled) {
				return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, orderID, o.Status)
			}

			for _, it := range o.Items {
				if err := release(ctx, tx, it.BookID, it.Quantity); err != nil {
					if !errors.Is(err, ErrNotFound) {
						return err
					}
					l.Warn("release_skipped", "reason", "book no longer exists", "book_id", it.BookID)
				}
			}

			ok, err := tx.UpdateOrderStatus(ctx, o.ID, o.Status, models.StatusCancelled)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, orderID)
			}
			prev = o.Status
			o.Status = models.StatusCancelled
			order = o
			return nil
		})
	})
	if err != nil {
		err = classify(err)
		l.Warn("cancel_order_failed", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, order.UserID.String(), newOrderEvent("order_cancelled", order, prev))
	l.Info("order_cancelled", "previous_status", prev)
	return order, nil
}

// UpdateStatus moves the order one step along its lifecycle. Cancelling goes
// through CancelOrder so that stock is restored.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", orderID)

	to, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if to == models.StatusCancelled {
		return s.CancelOrder(ctx, orderID, Actor{Role: RoleAdmin})
	}

	var (
		order *models.Order
		prev  models.OrderStatus
	)
	err = withRetry(ctx, func() error {
		return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
			o, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if !models.CanTransition(o.Status, to) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
			}
			ok, err := tx.UpdateOrderStatus(ctx, o.ID, o.Status, to)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: order %s changed concurrently", ErrConflict, orderID)
			}
			prev = o.Status
			o.Status = to
			order = o
			return nil
		})
	})
	if err != nil {
		err = classify(err)
		l.Warn("update_status_failed", "to", to, "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, order.UserID.String(), newOrderEvent("order_status_changed", order, prev))
	l.Info("order_status_changed", "from", prev, "to", to)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, classify(err)
	}
	if !actor.canAccess(o.UserID) {
		return nil, fmt.Errorf("%w: order %s", ErrForbidden, orderID)
	}
	return o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	total, orders, err := s.Repo.ListOrders(ctx, &userID, nil, offset, limit)
	if err != nil {
		return 0, nil, classify(err)
	}
	return total, orders, nil
}

// ListAllOrders is the admin view; an empty status lists every order.
func (s *OrderService) ListAllOrders(ctx context.Context, status string, offset, limit int) (int64, []models.Order, error) {
	var filter *models.OrderStatus
	if status != "" {
		st, err := models.ParseOrderStatus(status)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		filter = &st
	}
	total, orders, err := s.Repo.ListOrders(ctx, nil, filter, offset, limit)
	if err != nil {
		return 0, nil, classify(err)
	}
	return total, orders, nil
}
