package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/util"
)

type BookHTTP struct {
	Svc       *service.CatalogService
	Inventory *service.InventoryService
}

func (h *BookHTTP) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.get_book")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_book", "id is not a uuid", err)
	}

	d, err := h.Svc.GetBook(ctx, id)
	if err != nil {
		return fail(c, l, "get_book", err)
	}

	return c.JSON(http.StatusOK, transport.BookResponse{
		Book:          d.Book,
		AverageRating: d.Stats.Average,
		ReviewCount:   d.Stats.Count,
	})
}

func (h *BookHTTP) GetBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.get_books")

	var f repo.BookFilter
	for _, p := range []struct {
		name string
		dst  **uuid.UUID
	}{
		{"author_id", &f.AuthorID},
		{"publisher_id", &f.PublisherID},
		{"category_id", &f.CategoryID},
	} {
		v := c.QueryParam(p.name)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest(l, "get_books", p.name+" is not a uuid", err)
		}
		*p.dst = &id
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListBooks(ctx, f, offset, limit)
	if err != nil {
		return fail(c, l, "get_books", err)
	}

	l.Info("get_books_success")
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *BookHTTP) SearchBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.search_books")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchBooks(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, l, "search_books", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *BookHTTP) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.create_book")

	var req transport.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_book", "invalid body", err)
	}

	b, err := h.Svc.CreateBook(ctx, req)
	if err != nil {
		return fail(c, l, "create_book", err)
	}

	l.Info("create_book_success", "book_id", b.ID)
	return c.JSON(http.StatusCreated, b)
}

func (h *BookHTTP) PatchBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.patch_book")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "patch_book", "id is not a uuid", err)
	}
	var req transport.PatchBookRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_book", "invalid body", err)
	}

	b, err := h.Svc.PatchBook(ctx, id, req)
	if err != nil {
		return fail(c, l, "patch_book", err)
	}

	l.Info("patch_book_success", "book_id", b.ID)
	return c.JSON(http.StatusOK, b)
}

func (h *BookHTTP) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.delete_book")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_book", "id is not a uuid", err)
	}
	if err := h.Svc.DeleteBook(ctx, id); err != nil {
		return fail(c, l, "delete_book", err)
	}

	l.Info("delete_book_success", "book_id", id)
	return c.NoContent(http.StatusNoContent)
}

// SetStock overwrites the stock count (restock or inventory correction).
func (h *BookHTTP) SetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.set_stock")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "set_stock", "id is not a uuid", err)
	}
	var req transport.SetStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_stock", "invalid body", err)
	}

	b, err := h.Inventory.SetStock(ctx, id, req.Stock)
	if err != nil {
		return fail(c, l, "set_stock", err)
	}

	l.Info("set_stock_success", "book_id", id, "stock", b.Stock)
	return c.JSON(http.StatusOK, b)
}
