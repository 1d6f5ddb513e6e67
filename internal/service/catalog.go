package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/events"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

// BookIndexer is the full-text index kept next to the books table.
type BookIndexer interface {
	IndexBook(ctx context.Context, b models.Book, author string) error
	DeleteBook(ctx context.Context, id uuid.UUID) error
	SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo    *repo.GormRepo
	Reviews *ReviewService
	Index   BookIndexer
	Events  events.Publisher
}

type BookDetails struct {
	Book  models.Book
	Stats models.RatingStats
}

func (s *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (*BookDetails, error) {
	b, err := s.Repo.GetBook(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	out := &BookDetails{Book: *b}
	if s.Reviews != nil {
		st, err := s.Reviews.Stats(ctx, id)
		if err != nil {
			return nil, err
		}
		out.Stats = st
	}
	return out, nil
}

func (s *CatalogService) ListBooks(ctx context.Context, f repo.BookFilter, offset, limit int) (int64, []models.Book, error) {
	total, items, err := s.Repo.ListBooks(ctx, f, offset, limit)
	if err != nil {
		return 0, nil, classify(err)
	}
	return total, items, nil
}

// SearchBooks asks the index first and falls back to a LIKE query when the
// index is not configured or fails.
func (s *CatalogService) SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search_books")

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Book{}, nil
	}

	if s.Index != nil {
		total, ids, err := s.Index.SearchBooks(ctx, q, offset, limit)
		if err == nil {
			books, err := s.Repo.GetBooksByIDs(ctx, ids)
			if err != nil {
				return 0, nil, classify(err)
			}
			items := make([]models.Book, 0, len(ids))
			for _, id := range ids {
				if b, ok := books[id]; ok {
					items = append(items, b)
				}
			}
			return total, items, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	total, items, err := s.Repo.SearchBooks(ctx, q, offset, limit)
	if err != nil {
		return 0, nil, classify(err)
	}
	return total, items, nil
}

func (s *CatalogService) CreateBook(ctx context.Context, req transport.CreateBookRequest) (*models.Book, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_book")

	if err := required("title", req.Title); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if err := s.checkRefs(ctx, req.AuthorID, req.PublisherID, req.CategoryID); err != nil {
		return nil, err
	}

	b := &models.Book{
		Title:       strings.TrimSpace(req.Title),
		ISBN:        normalizeISBN(req.ISBN),
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
		CategoryID:  req.CategoryID,
	}
	if err := s.Repo.CreateBook(ctx, b); err != nil {
		err = classify(err)
		l.Warn("create_book_failed", "error", err)
		return nil, err
	}

	s.index(ctx, b)
	publish(ctx, s.Events, events.TopicBooks, b.ID.String(), newBookEvent("book_created", b))
	l.Info("book_created", "book_id", b.ID)
	return b, nil
}

// PatchBook updates only the fields present in req.
func (s *CatalogService) PatchBook(ctx context.Context, id uuid.UUID, req transport.PatchBookRequest) (*models.Book, error) {
	fields := map[string]any{}
	if req.Title != nil {
		if err := required("title", *req.Title); err != nil {
			return nil, err
		}
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.ISBN != nil {
		fields["isbn"] = normalizeISBN(req.ISBN)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		fields["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
		}
		fields["stock"] = *req.Stock
	}
	if err := s.checkRefs(ctx, req.AuthorID, req.PublisherID, req.CategoryID); err != nil {
		return nil, err
	}
	if req.AuthorID != nil {
		fields["author_id"] = *req.AuthorID
	}
	if req.PublisherID != nil {
		fields["publisher_id"] = *req.PublisherID
	}
	if req.CategoryID != nil {
		fields["category_id"] = *req.CategoryID
	}

	b, err := s.Repo.UpdateBook(ctx, id, fields)
	if err != nil {
		return nil, classify(err)
	}

	s.index(ctx, b)
	publish(ctx, s.Events, events.TopicBooks, b.ID.String(), newBookEvent("book_updated", b))
	return b, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteBook(ctx, id); err != nil {
		return classify(err)
	}
	if s.Index != nil {
		if err := s.Index.DeleteBook(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_failed", "book_id", id, "error", err)
		}
	}
	if s.Reviews != nil {
		s.Reviews.invalidate(ctx, id)
	}
	publish(ctx, s.Events, events.TopicBooks, id.String(), BookEvent{Type: "book_deleted", BookID: id})
	return nil
}

func (s *CatalogService) checkRefs(ctx context.Context, authorID, publisherID, categoryID *uuid.UUID) error {
	checks := []struct {
		name  string
		id    *uuid.UUID
		exist func(context.Context, uuid.UUID) (bool, error)
	}{
		{"author", authorID, s.Repo.AuthorExists},
		{"publisher", publisherID, s.Repo.PublisherExists},
		{"category", categoryID, s.Repo.CategoryExists},
	}
	for _, c := range checks {
		if c.id == nil {
			continue
		}
		ok, err := c.exist(ctx, *c.id)
		if err != nil {
			return classify(err)
		}
		if !ok {
			return fmt.Errorf("%w: %s %s does not exist", ErrValidation, c.name, *c.id)
		}
	}
	return nil
}

func (s *CatalogService) index(ctx context.Context, b *models.Book) {
	if s.Index == nil {
		return
	}
	l := logging.FromContext(ctx)
	author := ""
	if b.AuthorID != nil {
		if a, err := s.Repo.GetAuthor(ctx, *b.AuthorID); err == nil {
			author = a.Name
		}
	}
	if err := s.Index.IndexBook(ctx, *b, author); err != nil {
		l.Warn("search_index_failed", "book_id", b.ID, "error", err)
	}
}

func normalizeISBN(isbn *string) *string {
	if isbn == nil {
		return nil
	}
	v := strings.TrimSpace(*isbn)
	if v == "" {
		return nil
	}
	return &v
}
