package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/util"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list_reviews")

	bookID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "list_reviews", "id is not a uuid", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.ListReviews(ctx, bookID, offset, limit)
	if err != nil {
		return fail(c, l, "list_reviews", err)
	}
	stats, err := h.Svc.Stats(ctx, bookID)
	if err != nil {
		return fail(c, l, "list_reviews", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":           items,
		"meta":           util.NewMeta(page, offset, limit, total),
		"average_rating": stats.Average,
		"review_count":   stats.Count,
	})
}

func (h *ReviewHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create_review")

	userID, err := GetID(c)
	if err != nil {
		return fail(c, l, "create_review", err)
	}
	bookID, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "create_review", "id is not a uuid", err)
	}
	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_review", "invalid body", err)
	}

	rv, err := h.Svc.CreateReview(ctx, userID, bookID, req.Rating, req.Comment)
	if err != nil {
		return fail(c, l, "create_review", err)
	}

	l.Info("create_review_success", "review_id", rv.ID)
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHTTP) DeleteReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete_review")

	actor, err := actorOf(c)
	if err != nil {
		return fail(c, l, "delete_review", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_review", "id is not a uuid", err)
	}

	if err := h.Svc.DeleteReview(ctx, id, actor); err != nil {
		return fail(c, l, "delete_review", err)
	}

	l.Info("delete_review_success", "review_id", id)
	return c.NoContent(http.StatusNoContent)
}
