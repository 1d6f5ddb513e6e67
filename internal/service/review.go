package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

// RatingCache holds per-book rating stats. A nil cache disables caching.
// Invalidate bumps the book's version; SetStats must drop a fill whose
// version is no longer current.
type RatingCache interface {
	GetStats(ctx context.Context, bookID uuid.UUID) (models.RatingStats, bool, error)
	Version(ctx context.Context, bookID uuid.UUID) (int64, error)
	SetStats(ctx context.Context, bookID uuid.UUID, stats models.RatingStats, version int64) error
	Invalidate(ctx context.Context, bookID uuid.UUID) error
}

type ReviewService struct {
	Repo  *repo.GormRepo
	Cache RatingCache
}

// AverageRating is exactly 0 for a book without reviews.
func (s *ReviewService) AverageRating(ctx context.Context, bookID uuid.UUID) (float64, error) {
	st, err := s.Stats(ctx, bookID)
	if err != nil {
		return 0, err
	}
	return st.Average, nil
}

func (s *ReviewService) ReviewCount(ctx context.Context, bookID uuid.UUID) (int64, error) {
	st, err := s.Stats(ctx, bookID)
	if err != nil {
		return 0, err
	}
	return st.Count, nil
}

// Stats reads through the cache. Cache failures are logged and fall back to the database.
func (s *ReviewService) Stats(ctx context.Context, bookID uuid.UUID) (models.RatingStats, error) {
	l := logging.FromContext(ctx).With("svc", "review.stats", "book_id", bookID)

	fill := s.Cache != nil
	var version int64
	if s.Cache != nil {
		st, ok, err := s.Cache.GetStats(ctx, bookID)
		if err != nil {
			l.Warn("rating_cache_get_failed", "error", err)
		} else if ok {
			return st, nil
		}
		// the version is read before the database so a review written in
		// between makes the fill stale
		if version, err = s.Cache.Version(ctx, bookID); err != nil {
			l.Warn("rating_cache_version_failed", "error", err)
			fill = false
		}
	}

	st, err := s.Repo.RatingStats(ctx, bookID)
	if err != nil {
		return models.RatingStats{}, classify(err)
	}

	if fill {
		if err := s.Cache.SetStats(ctx, bookID, st, version); err != nil {
			l.Warn("rating_cache_set_failed", "error", err)
		}
	}
	return st, nil
}

func (s *ReviewService) CreateReview(ctx context.Context, userID, bookID uuid.UUID, rating int, comment string) (*models.Review, error) {
	l := logging.FromContext(ctx).With("svc", "review.create", "user_id", userID, "book_id", bookID)

	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	ok, err := s.Repo.BookExists(ctx, bookID)
	if err != nil {
		return nil, classify(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: book %s", ErrNotFound, bookID)
	}

	dup, err := s.Repo.ReviewExists(ctx, userID, bookID)
	if err != nil {
		return nil, classify(err)
	}
	if dup {
		return nil, fmt.Errorf("%w: book already reviewed by this user", ErrConflict)
	}

	rv := &models.Review{UserID: userID, BookID: bookID, Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := s.Repo.CreateReview(ctx, rv); err != nil {
		err = classify(err)
		l.Warn("create_review_failed", "error", err)
		return nil, err
	}

	s.invalidate(ctx, bookID)
	l.Info("review_created", "review_id", rv.ID, "rating", rating)
	return rv, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, reviewID uuid.UUID, actor Actor) error {
	rv, err := s.Repo.GetReview(ctx, reviewID)
	if err != nil {
		return classify(err)
	}
	if !actor.canAccess(rv.UserID) {
		return fmt.Errorf("%w: review %s", ErrForbidden, reviewID)
	}
	if err := s.Repo.DeleteReview(ctx, reviewID); err != nil {
		return classify(err)
	}
	s.invalidate(ctx, rv.BookID)
	return nil
}

func (s *ReviewService) ListReviews(ctx context.Context, bookID uuid.UUID, offset, limit int) (int64, []models.Review, error) {
	total, items, err := s.Repo.ListReviews(ctx, bookID, offset, limit)
	if err != nil {
		return 0, nil, classify(err)
	}
	return total, items, nil
}

func (s *ReviewService) invalidate(ctx context.Context, bookID uuid.UUID) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx, bookID); err != nil {
		logging.FromContext(ctx).Warn("rating_cache_invalidate_failed", "book_id", bookID, "error", err)
	}
}
