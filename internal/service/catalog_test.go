package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/events"
)

type fakeIndex struct {
	docs    map[uuid.UUID]string
	authors map[uuid.UUID]string
	hits    []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[uuid.UUID]string{}, authors: map[uuid.UUID]string{}}
}

func (f *fakeIndex) IndexBook(_ context.Context, b models.Book, author string) error {
	f.docs[b.ID] = b.Title
	f.authors[b.ID] = author
	return nil
}

func (f *fakeIndex) DeleteBook(_ context.Context, id uuid.UUID) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchBooks(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	return int64(len(f.hits)), f.hits, f.err
}

func ptr[T any](v T) *T { return &v }

func TestCatalogService_CreateBook(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	idx := newFakeIndex()
	env.catalog.Index = idx

	author, err := env.catalog.CreateAuthor(env.ctx, transport.AuthorRequest{Name: ptr("Frank Herbert")})
	require.NoError(t, err)

	b, err := env.catalog.CreateBook(env.ctx, transport.CreateBookRequest{
		Title:    " Dune ",
		ISBN:     ptr(""),
		Price:    decimal.RequireFromString("9.999"),
		Stock:    3,
		AuthorID: &author.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)
	assert.Nil(t, b.ISBN)
	assert.True(t, decimal.RequireFromString("10.00").Equal(b.Price))
	assert.Equal(t, "Frank Herbert", idx.authors[b.ID])
	assert.Equal(t, []string{"book_created"}, env.events.Types(events.TopicBooks))
}

func TestCatalogService_CreateBook_Validation(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	cases := []transport.CreateBookRequest{
		{Title: "", Price: decimal.NewFromInt(1)},
		{Title: "x", Price: decimal.NewFromInt(-1)},
		{Title: "x", Price: decimal.NewFromInt(1), Stock: -1},
		{Title: "x", Price: decimal.NewFromInt(1), CategoryID: ptr(uuid.New())},
	}
	for _, req := range cases {
		_, err := env.catalog.CreateBook(env.ctx, req)
		require.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
}

func TestCatalogService_DuplicateISBN(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	req := transport.CreateBookRequest{Title: "A", ISBN: ptr("978-0441013593"), Price: decimal.NewFromInt(1)}

	_, err := env.catalog.CreateBook(env.ctx, req)
	require.NoError(t, err)
	_, err = env.catalog.CreateBook(env.ctx, req)
	require.ErrorIs(t, err, ErrConflict)
}

func TestCatalogService_PatchBook(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	b := env.book("Old", "1.00", 2)

	got, err := env.catalog.PatchBook(env.ctx, b.ID, transport.PatchBookRequest{
		Description: ptr("new description"),
		Stock:       ptr(7),
	})
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Title)
	assert.Equal(t, "new description", got.Description)
	assert.Equal(t, 7, got.Stock)

	_, err = env.catalog.PatchBook(env.ctx, b.ID, transport.PatchBookRequest{Price: ptr(decimal.NewFromInt(-2))})
	require.ErrorIs(t, err, ErrValidation)
	_, err = env.catalog.PatchBook(env.ctx, uuid.New(), transport.PatchBookRequest{Title: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_GetBookWithStats(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	b := env.book("Rated", "1.00", 2)
	_, err := env.reviews.CreateReview(env.ctx, uuid.New(), b.ID, 4, "")
	require.NoError(t, err)

	d, err := env.catalog.GetBook(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, d.Stats.Average)
	assert.EqualValues(t, 1, d.Stats.Count)

	_, err = env.catalog.GetBook(env.ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_ListBooksByCategory(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	cat, err := env.catalog.CreateCategory(env.ctx, transport.CategoryRequest{Name: ptr("Sci-Fi")})
	require.NoError(t, err)

	_, err = env.catalog.CreateBook(env.ctx, transport.CreateBookRequest{Title: "In", Price: decimal.NewFromInt(1), CategoryID: &cat.ID})
	require.NoError(t, err)
	env.book("Out", "1.00", 1)

	total, items, err := env.catalog.ListBooks(env.ctx, repo.BookFilter{CategoryID: &cat.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "In", items[0].Title)

	_, err = env.catalog.CreateCategory(env.ctx, transport.CategoryRequest{Name: ptr("Sci-Fi")})
	require.ErrorIs(t, err, ErrConflict)
}

func TestCatalogService_SearchBooks(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	dune := env.book("Dune", "1.00", 1)
	env.book("Emma", "1.00", 1)

	total, items, err := env.catalog.SearchBooks(env.ctx, "dUN", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, dune.ID, items[0].ID)

	idx := newFakeIndex()
	idx.hits = []uuid.UUID{dune.ID, uuid.New()}
	env.catalog.Index = idx
	_, items, err = env.catalog.SearchBooks(env.ctx, "anything", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1, "ids missing from the database are dropped")

	idx.err = errors.New("es down")
	total, _, err = env.catalog.SearchBooks(env.ctx, "emma", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total, items, err = env.catalog.SearchBooks(env.ctx, "  ", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestCatalogService_DeleteBook(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	idx := newFakeIndex()
	env.catalog.Index = idx

	b, err := env.catalog.CreateBook(env.ctx, transport.CreateBookRequest{Title: "Gone", Price: decimal.NewFromInt(1), Stock: 1})
	require.NoError(t, err)
	user := uuid.New()
	env.add(user, b.ID, 1)
	_, err = env.reviews.CreateReview(env.ctx, user, b.ID, 5, "")
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteBook(env.ctx, b.ID))
	assert.NotContains(t, idx.docs, b.ID)
	assert.Equal(t, 0, env.cartLen(user))
	assert.Zero(t, env.count(&models.Review{}))
	require.ErrorIs(t, env.catalog.DeleteBook(env.ctx, b.ID), ErrNotFound)
}

func TestCatalogService_References(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	_, err := env.catalog.CreateAuthor(env.ctx, transport.AuthorRequest{Name: ptr(" ")})
	require.ErrorIs(t, err, ErrValidation)

	a, err := env.catalog.CreateAuthor(env.ctx, transport.AuthorRequest{Name: ptr("Le Guin")})
	require.NoError(t, err)
	p, err := env.catalog.CreatePublisher(env.ctx, transport.PublisherRequest{Name: ptr("Ace"), Website: ptr("ace.example")})
	require.NoError(t, err)

	a, err = env.catalog.UpdateAuthor(env.ctx, a.ID, transport.AuthorRequest{Bio: ptr("Earthsea")})
	require.NoError(t, err)
	assert.Equal(t, "Le Guin", a.Name)
	assert.Equal(t, "Earthsea", a.Bio)

	b, err := env.catalog.CreateBook(env.ctx, transport.CreateBookRequest{
		Title: "Wizard", Price: decimal.NewFromInt(1), AuthorID: &a.ID, PublisherID: &p.ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteAuthor(env.ctx, a.ID))
	_, err = env.catalog.GetAuthor(env.ctx, a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := env.repo.GetBook(env.ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AuthorID, "deleting an author unlinks its books")
	require.NotNil(t, got.PublisherID)

	total, pubs, err := env.catalog.ListPublishers(env.ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "ace.example", pubs[0].Website)

	_, err = env.catalog.UpdatePublisher(env.ctx, uuid.New(), transport.PublisherRequest{Name: ptr("x")})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, env.catalog.DeleteCategory(env.ctx, uuid.New()), ErrNotFound)
}
