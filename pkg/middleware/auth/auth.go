package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Refresher rotates a refresh token. When set, an expired access cookie is
// renewed transparently as long as the refresh cookie is still valid.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

type Middleware struct {
	JWTSecret []byte
	Refresher Refresher
}

func New(secret []byte, refresher Refresher) *Middleware {
	return &Middleware{JWTSecret: secret, Refresher: refresher}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err == nil {
			return m.proceed(c, next, claims, validator)
		}

		if !fromCookie || !errors.Is(err, jwt.ErrTokenExpired) || m.Refresher == nil {
			if fromCookie {
				clearAuthCookies(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		pair, refErr := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
		if refErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}
		SetAuthCookies(c, pair)

		newClaims, pErr := tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
		if pErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}
		return m.proceed(c, next, newClaims, validator)
	}
}

func (m *Middleware) proceed(c echo.Context, next echo.HandlerFunc, claims *tokens.AccessClaims, validator validatorFunc) error {
	if validator != nil {
		if err := validator(claims); err != nil {
			return err
		}
	}
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
	return next(c)
}

// accessToken prefers the cookie and falls back to an Authorization bearer header.
func accessToken(c echo.Context) (string, bool) {
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:]), false
	}
	return "", false
}

func SetAuthCookies(c echo.Context, pair *tokens.Pair) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, pair.AccessToken, "/", pair.AccessExp))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, pair.RefreshToken, "/", pair.RefreshExp))
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func ClearAuthCookies(c echo.Context) { clearAuthCookies(c) }
