package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/pkg/logging"
)

var (
	ErrValidation          = errors.New("validation")            // 400
	ErrEmptyCart           = errors.New("cart is empty")         // 400
	ErrInvalidCredentials  = errors.New("invalid credentials")   // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token") // 401
	ErrForbidden           = errors.New("forbidden")             // 403
	ErrNotFound            = errors.New("not found")             // 404
	ErrInsufficientStock   = errors.New("insufficient stock")    // 409
	ErrInvalidTransition   = errors.New("invalid transition")    // 409
	ErrConflict            = errors.New("conflict")              // 409
	ErrUnavailable         = errors.New("unavailable")           // 503
)

var domainErrors = []error{
	ErrValidation, ErrEmptyCart, ErrInvalidCredentials, ErrInvalidRefreshToken,
	ErrForbidden, ErrNotFound, ErrInsufficientStock, ErrInvalidTransition,
	ErrConflict, ErrUnavailable,
}

// StockError names the book that could not be reserved.
type StockError struct {
	BookID    uuid.UUID
	Title     string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: requested %d, available %d", e.BookID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// classify maps storage errors onto the service taxonomy. Errors that are
// already part of it pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, d := range domainErrors {
		if errors.Is(err, d) {
			return err
		}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case isTransient(err), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// isTransient reports errors caused by a concurrent writer: serialization
// failure, deadlock, lock not available, or a busy SQLite database.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database table is locked")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// withRetry runs fn and, if it lost against a concurrent writer, runs it once more.
func withRetry(ctx context.Context, fn func() error) error {
	return retryOnce(ctx, fn, isTransient)
}

func retryOnce(ctx context.Context, fn func() error, retryable func(error) bool) error {
	err := fn()
	if err == nil || !retryable(err) || ctx.Err() != nil {
		return err
	}
	logging.FromContext(ctx).Warn("retry_after_conflict", "error", err)
	return fn()
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s required", ErrValidation, field)
	}
	return nil
}
