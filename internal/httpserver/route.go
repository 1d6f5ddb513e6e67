package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/pkg/logging"
	authmw "github.com/Skotchmaster/bookstore/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	BookHandler   *BookHTTP
	RefHandler    *RefHTTP
	CartHandler   *CartHTTP
	OrderHandler  *OrderHTTP
	ReviewHandler *ReviewHTTP

	JWTSecret []byte
	Refresher authmw.Refresher

	// Ready reports whether the backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("ready_check_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	mw := authmw.New(d.JWTSecret, d.Refresher)
	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.LogOut)

	books := api.Group("/books")
	books.GET("", d.BookHandler.GetBooks)
	books.GET("/search", d.BookHandler.SearchBooks)
	books.GET("/:id", d.BookHandler.GetBook)
	books.GET("/:id/reviews", d.ReviewHandler.ListReviews)
	books.POST("/:id/reviews", d.ReviewHandler.CreateReview, mw.RequireAuth)
	books.POST("", d.BookHandler.CreateBook, mw.RequireAdmin)
	books.PATCH("/:id", d.BookHandler.PatchBook, mw.RequireAdmin)
	books.DELETE("/:id", d.BookHandler.DeleteBook, mw.RequireAdmin)
	books.PUT("/:id/stock", d.BookHandler.SetStock, mw.RequireAdmin)

	registerRefs(api.Group("/authors"), mw, d.RefHandler.ListAuthors, d.RefHandler.GetAuthor,
		d.RefHandler.CreateAuthor, d.RefHandler.UpdateAuthor, d.RefHandler.DeleteAuthor)
	registerRefs(api.Group("/publishers"), mw, d.RefHandler.ListPublishers, d.RefHandler.GetPublisher,
		d.RefHandler.CreatePublisher, d.RefHandler.UpdatePublisher, d.RefHandler.DeletePublisher)
	registerRefs(api.Group("/categories"), mw, d.RefHandler.ListCategories, d.RefHandler.GetCategory,
		d.RefHandler.CreateCategory, d.RefHandler.UpdateCategory, d.RefHandler.DeleteCategory)

	api.DELETE("/reviews/:id", d.ReviewHandler.DeleteReview, mw.RequireAuth)

	cart := api.Group("/cart", mw.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.DELETE("", d.CartHandler.ClearCart)
	cart.POST("/items", d.CartHandler.AddToCart)
	cart.PUT("/items/:bookId", d.CartHandler.SetQuantity)
	cart.DELETE("/items/:bookId", d.CartHandler.RemoveFromCart)

	orders := api.Group("/orders", mw.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	admin := api.Group("/admin", mw.RequireAdmin)
	admin.GET("/orders", d.OrderHandler.ListAllOrders)
	api.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus, mw.RequireAdmin)
}

func registerRefs(g *echo.Group, mw *authmw.Middleware, list, get, create, update, del echo.HandlerFunc) {
	g.GET("", list)
	g.GET("/:id", get)
	g.POST("", create, mw.RequireAdmin)
	g.PATCH("/:id", update, mw.RequireAdmin)
	g.DELETE("/:id", del, mw.RequireAdmin)
}
