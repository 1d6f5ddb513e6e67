package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/testutil"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

var (
	accessSecret  = []byte("test-access")
	refreshSecret = []byte("test-refresh")
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	Repo   *repo.GormRepo
	Events *events.Recorder
	ready  error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	r := repo.New(testutil.SQLite(t))
	rec := &events.Recorder{}

	reviews := &service.ReviewService{Repo: r}
	catalog := &service.CatalogService{Repo: r, Reviews: reviews, Events: rec}
	auth := &service.AuthService{Repo: r, JWTSecret: accessSecret, RefreshSecret: refreshSecret}

	env := &testEnv{T: t, E: echo.New(), Repo: r, Events: rec}
	Register(env.E, &Deps{
		AuthHandler:   &AuthHTTP{Svc: auth},
		BookHandler:   &BookHTTP{Svc: catalog, Inventory: &service.InventoryService{Repo: r}},
		RefHandler:    &RefHTTP{Svc: catalog},
		CartHandler:   &CartHTTP{Svc: &service.CartService{Repo: r, Events: rec}},
		OrderHandler:  &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: rec}},
		ReviewHandler: &ReviewHTTP{Svc: reviews},
		JWTSecret:     accessSecret,
		Refresher:     auth,
		Ready:         func(context.Context) error { return env.ready },
	})
	return env
}

// doJSONRequest runs the request through the full router, middleware included.
func (env *testEnv) doJSONRequest(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) token(userID uuid.UUID, role string) string {
	env.T.Helper()
	tok, err := tokens.CreateAccessToken(accessSecret, userID.String(), role, time.Now().Add(time.Minute))
	require.NoError(env.T, err)
	return tok
}

func (env *testEnv) user() (uuid.UUID, string) {
	id := uuid.New()
	return id, env.token(id, service.RoleUser)
}

func (env *testEnv) admin() string {
	return env.token(uuid.New(), service.RoleAdmin)
}

func (env *testEnv) book(title, price string, stock int) *models.Book {
	env.T.Helper()
	b := &models.Book{Title: title, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(env.T, env.Repo.CreateBook(context.Background(), b))
	return b
}

func (env *testEnv) stock(id uuid.UUID) int {
	env.T.Helper()
	b, err := env.Repo.GetBook(context.Background(), id)
	require.NoError(env.T, err)
	return b.Stock
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

var errNotReady = errors.New("database is down")
