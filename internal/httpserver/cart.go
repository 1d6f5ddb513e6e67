package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func newCartResponse(cart *service.Cart) transport.CartResponse {
	items := make([]transport.CartLineResponse, 0, len(cart.Lines))
	for _, ln := range cart.Lines {
		items = append(items, transport.CartLineResponse{
			BookID:    ln.Item.BookID,
			Title:     ln.Title,
			Quantity:  ln.Item.Quantity,
			UnitPrice: ln.UnitPrice,
			LineTotal: ln.LineTotal,
			InStock:   ln.InStock,
		})
	}
	return transport.CartResponse{Items: items, Total: cart.Total}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "get_cart", err)
	}

	cart, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(c, l, "get_cart", err)
	}
	return c.JSON(http.StatusOK, newCartResponse(cart))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "add_to_cart", err)
	}
	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart", "invalid body", err)
	}

	item, err := h.Svc.Add(ctx, userID, req.BookID, req.Quantity)
	if err != nil {
		return fail(c, l, "add_to_cart", err)
	}

	l.Info("add_to_cart_success", "book_id", item.BookID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "set_quantity", err)
	}
	bookID, err := paramID(c, "bookId")
	if err != nil {
		return badRequest(l, "set_quantity", "book id is not a uuid", err)
	}
	var req transport.SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_quantity", "invalid body", err)
	}

	item, err := h.Svc.SetQuantity(ctx, userID, bookID, req.Quantity)
	if err != nil {
		return fail(c, l, "set_quantity", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_from_cart")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "remove_from_cart", err)
	}
	bookID, err := paramID(c, "bookId")
	if err != nil {
		return badRequest(l, "remove_from_cart", "book id is not a uuid", err)
	}

	if err := h.Svc.Remove(ctx, userID, bookID); err != nil {
		return fail(c, l, "remove_from_cart", err)
	}

	l.Info("remove_from_cart_success", "book_id", bookID)
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "clear_cart", err)
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(c, l, "clear_cart", err)
	}

	l.Info("clear_cart_success")
	return c.NoContent(http.StatusNoContent)
}
