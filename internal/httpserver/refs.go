package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/util"
)

// RefHTTP serves authors, publishers and categories. They share one shape
// so the handlers are built from the generic helpers below.
type RefHTTP struct {
	Svc *service.CatalogService
}

func (h *RefHTTP) GetAuthor(c echo.Context) error { return getRef(c, "author", h.Svc.GetAuthor) }
func (h *RefHTTP) ListAuthors(c echo.Context) error {
	return listRefs(c, "author", h.Svc.ListAuthors)
}
func (h *RefHTTP) CreateAuthor(c echo.Context) error {
	return createRef(c, "author", h.Svc.CreateAuthor)
}
func (h *RefHTTP) UpdateAuthor(c echo.Context) error {
	return updateRef(c, "author", h.Svc.UpdateAuthor)
}
func (h *RefHTTP) DeleteAuthor(c echo.Context) error {
	return deleteRef(c, "author", h.Svc.DeleteAuthor)
}

func (h *RefHTTP) GetPublisher(c echo.Context) error {
	return getRef(c, "publisher", h.Svc.GetPublisher)
}
func (h *RefHTTP) ListPublishers(c echo.Context) error {
	return listRefs(c, "publisher", h.Svc.ListPublishers)
}
func (h *RefHTTP) CreatePublisher(c echo.Context) error {
	return createRef(c, "publisher", h.Svc.CreatePublisher)
}
func (h *RefHTTP) UpdatePublisher(c echo.Context) error {
	return updateRef(c, "publisher", h.Svc.UpdatePublisher)
}
func (h *RefHTTP) DeletePublisher(c echo.Context) error {
	return deleteRef(c, "publisher", h.Svc.DeletePublisher)
}

func (h *RefHTTP) GetCategory(c echo.Context) error {
	return getRef(c, "category", h.Svc.GetCategory)
}
func (h *RefHTTP) ListCategories(c echo.Context) error {
	return listRefs(c, "category", h.Svc.ListCategories)
}
func (h *RefHTTP) CreateCategory(c echo.Context) error {
	return createRef(c, "category", h.Svc.CreateCategory)
}
func (h *RefHTTP) UpdateCategory(c echo.Context) error {
	return updateRef(c, "category", h.Svc.UpdateCategory)
}
func (h *RefHTTP) DeleteCategory(c echo.Context) error {
	return deleteRef(c, "category", h.Svc.DeleteCategory)
}

func getRef[T any](c echo.Context, kind string, get func(context.Context, uuid.UUID) (*T, error)) error {
	ctx := c.Request().Context()
	op := "get_" + kind
	l := logging.FromContext(ctx).With("handler", kind+"."+op)

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, op, "id is not a uuid", err)
	}
	v, err := get(ctx, id)
	if err != nil {
		return fail(c, l, op, err)
	}
	return c.JSON(http.StatusOK, v)
}

func listRefs[T any](c echo.Context, kind string, list func(context.Context, int, int) (int64, []T, error)) error {
	ctx := c.Request().Context()
	op := "list_" + kind
	l := logging.FromContext(ctx).With("handler", kind+"."+op)

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := list(ctx, offset, limit)
	if err != nil {
		return fail(c, l, op, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

type refRequest interface {
	transport.AuthorRequest | transport.PublisherRequest | transport.CategoryRequest
}

func createRef[R refRequest, T any](c echo.Context, kind string, create func(context.Context, R) (*T, error)) error {
	ctx := c.Request().Context()
	op := "create_" + kind
	l := logging.FromContext(ctx).With("handler", kind+"."+op)

	var req R
	if err := c.Bind(&req); err != nil {
		return badRequest(l, op, "invalid body", err)
	}
	v, err := create(ctx, req)
	if err != nil {
		return fail(c, l, op, err)
	}
	l.Info(op + "_success")
	return c.JSON(http.StatusCreated, v)
}

func updateRef[R refRequest, T any](c echo.Context, kind string, update func(context.Context, uuid.UUID, R) (*T, error)) error {
	ctx := c.Request().Context()
	op := "update_" + kind
	l := logging.FromContext(ctx).With("handler", kind+"."+op)

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, op, "id is not a uuid", err)
	}
	var req R
	if err := c.Bind(&req); err != nil {
		return badRequest(l, op, "invalid body", err)
	}
	v, err := update(ctx, id, req)
	if err != nil {
		return fail(c, l, op, err)
	}
	l.Info(op + "_success")
	return c.JSON(http.StatusOK, v)
}

func deleteRef(c echo.Context, kind string, del func(context.Context, uuid.UUID) error) error {
	ctx := c.Request().Context()
	op := "delete_" + kind
	l := logging.FromContext(ctx).With("handler", kind+"."+op)

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, op, "id is not a uuid", err)
	}
	if err := del(ctx, id); err != nil {
		return fail(c, l, op, err)
	}
	l.Info(op + "_success")
	return c.NoContent(http.StatusNoContent)
}
