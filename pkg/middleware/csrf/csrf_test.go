package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

func newServer() *echo.Echo {
	e := echo.New()
	cfg := DefaultConfig()
	cfg.SkipPaths = []string{"/login"}
	e.Use(Middleware(cfg))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/books", ok)
	e.POST("/orders", ok)
	e.POST("/login", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCSRF_SafeMethodIssuesToken(t *testing.T) {
	t.Parallel()
	rec := serve(newServer(), httptest.NewRequest(http.MethodGet, "/books", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "XSRF-TOKEN="+token)
}

func TestCSRF_CookieAuthNeedsToken(t *testing.T) {
	t.Parallel()
	e := newServer()
	access := &http.Cookie{Name: tokens.AccessCookie, Value: "jwt"}
	xsrf := &http.Cookie{Name: "XSRF-TOKEN", Value: "abc"}

	req := httptest.NewRequest(http.MethodPost, "http://example.com/orders", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://example.com")
	req.AddCookie(access)
	req.AddCookie(xsrf)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code, "missing header")

	req = httptest.NewRequest(http.MethodPost, "http://example.com/orders", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("X-CSRF-Token", "abc")
	req.AddCookie(access)
	req.AddCookie(xsrf)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code, "foreign origin")

	req = httptest.NewRequest(http.MethodPost, "http://example.com/orders", nil)
	req.Host = "example.com"
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("X-CSRF-Token", "abc")
	req.AddCookie(access)
	req.AddCookie(xsrf)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestCSRF_BearerAndSkippedPathsPass(t *testing.T) {
	t.Parallel()
	e := newServer()

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer jwt")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: tokens.RefreshCookie, Value: "r"})
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}
