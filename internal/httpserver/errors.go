package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	authmw "github.com/Skotchmaster/bookstore/pkg/middleware/auth"
)

var errUnauthorized = errors.New("unauthorized")

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, "cart is empty"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid username or password"
	case errors.Is(err, service.ErrInvalidRefreshToken), errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, "insufficient stock"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid status transition"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs err under op and turns it into the HTTP response for its class.
// Validation messages are passed through so the client sees which field failed.
func fail(c echo.Context, l *slog.Logger, op string, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(op+"_error", "status", code, "reason", msg, "error", err)
	} else {
		l.Warn(op+"_error", "status", code, "reason", msg, "error", err)
	}

	var se *service.StockError
	if errors.As(err, &se) {
		return c.JSON(code, transport.StockErrorResponse{
			Message:   msg,
			BookID:    se.BookID,
			Title:     se.Title,
			Requested: se.Requested,
			Available: se.Available,
		})
	}
	if code == http.StatusBadRequest {
		msg = err.Error()
	}
	return echo.NewHTTPError(code, msg)
}

func badRequest(l *slog.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

// GetID returns the authenticated user's id set by the auth middleware.
func GetID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get("user_id").(string)
	if !ok || s == "" {
		return uuid.Nil, errUnauthorized
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errUnauthorized
	}
	return id, nil
}

func actorOf(c echo.Context) (service.Actor, error) {
	id, err := GetID(c)
	if err != nil {
		return service.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	if role != authmw.RoleAdmin {
		role = authmw.RoleUser
	}
	return service.Actor{UserID: id, Role: role}, nil
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
