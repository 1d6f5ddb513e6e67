package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	authmw "github.com/Skotchmaster/bookstore/pkg/middleware/auth"
	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, l, "register", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login", "invalid body", err)
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, l, "login", err)
	}
	authmw.SetAuthCookies(c, pair)

	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": pair.AccessToken,
		"is_admin":     pair.Role == authmw.RoleAdmin,
	})
}

// Refresh takes the refresh token from its cookie.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	ck, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || ck.Value == "" {
		l.Warn("refresh_error", "status", http.StatusUnauthorized, "reason", "refresh cookie missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	pair, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		authmw.ClearAuthCookies(c)
		return fail(c, l, "refresh", err)
	}
	authmw.SetAuthCookies(c, pair)

	l.Info("refresh_success")
	return c.JSON(http.StatusOK, echo.Map{"access_token": pair.AccessToken})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil {
		if err := h.Svc.LogOut(ctx, ck.Value); err != nil {
			authmw.ClearAuthCookies(c)
			return fail(c, l, "logout", err)
		}
	}
	authmw.ClearAuthCookies(c)

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
