package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// CreateOrder checks out the caller's cart.
func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "create_order", err)
	}
	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", "invalid body", err)
	}

	o, err := h.Svc.CreateOrder(ctx, userID, req.ShippingAddress)
	if err != nil {
		return fail(c, l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", o.ID, "total", o.TotalAmount)
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(o))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	actor, err := actorOf(c)
	if err != nil {
		return fail(c, l, "get_order", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order", "id is not a uuid", err)
	}

	o, err := h.Svc.GetOrder(ctx, id, actor)
	if err != nil {
		return fail(c, l, "get_order", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(o))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "list_orders", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return fail(c, l, "list_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": transport.NewOrderResponses(items),
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

// ListAllOrders is the admin view, optionally filtered by ?status=.
func (h *OrderHTTP) ListAllOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_all_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListAllOrders(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return fail(c, l, "list_all_orders", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": transport.NewOrderResponses(items),
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	actor, err := actorOf(c)
	if err != nil {
		return fail(c, l, "cancel_order", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order", "id is not a uuid", err)
	}

	o, err := h.Svc.CancelOrder(ctx, id, actor)
	if err != nil {
		return fail(c, l, "cancel_order", err)
	}

	l.Info("cancel_order_success", "order_id", o.ID)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(o))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_status", "id is not a uuid", err)
	}
	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status", "invalid body", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(c, l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", o.ID, "status", o.Status)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(o))
}
