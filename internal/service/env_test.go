package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/testutil"
	"github.com/Skotchmaster/bookstore/pkg/events"
)

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	repo      *repo.GormRepo
	events    *events.Recorder
	inventory *InventoryService
	carts     *CartService
	orders    *OrderService
	reviews   *ReviewService
	catalog   *CatalogService
}

func newEnvWithDB(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	r := repo.New(db)
	rec := &events.Recorder{}
	reviews := &ReviewService{Repo: r}
	return &testEnv{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		repo:      r,
		events:    rec,
		inventory: &InventoryService{Repo: r},
		carts:     &CartService{Repo: r, Events: rec},
		orders:    &OrderService{Repo: r, Events: rec},
		reviews:   reviews,
		catalog:   &CatalogService{Repo: r, Reviews: reviews, Events: rec},
	}
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvWithDB(t, testutil.SQLite(t))
}

func (e *testEnv) book(title, price string, stock int) *models.Book {
	e.t.Helper()
	b := &models.Book{Title: title, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(e.t, e.repo.CreateBook(e.ctx, b))
	return b
}

func (e *testEnv) stock(id uuid.UUID) int {
	e.t.Helper()
	b, err := e.repo.GetBook(e.ctx, id)
	require.NoError(e.t, err)
	return b.Stock
}

func (e *testEnv) add(userID, bookID uuid.UUID, qty int) {
	e.t.Helper()
	_, err := e.carts.Add(e.ctx, userID, bookID, qty)
	require.NoError(e.t, err)
}

func (e *testEnv) cartLen(userID uuid.UUID) int {
	e.t.Helper()
	items, err := e.carts.Items(e.ctx, userID)
	require.NoError(e.t, err)
	return len(items)
}

func (e *testEnv) count(model any) int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(model).Count(&n).Error)
	return n
}

func owner(id uuid.UUID) Actor { return Actor{UserID: id, Role: RoleUser} }

var admin = Actor{UserID: uuid.New(), Role: RoleAdmin}
