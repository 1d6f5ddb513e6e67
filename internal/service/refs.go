package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

func (s *CatalogService) CreateAuthor(ctx context.Context, req transport.AuthorRequest) (*models.Author, error) {
	a := &models.Author{Name: deref(req.Name), Bio: deref(req.Bio)}
	if err := required("name", a.Name); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return nil, classify(err)
	}
	return a, nil
}

func (s *CatalogService) GetAuthor(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	a, err := s.Repo.GetAuthor(ctx, id)
	return a, classify(err)
}

func (s *CatalogService) ListAuthors(ctx context.Context, offset, limit int) (int64, []models.Author, error) {
	total, items, err := s.Repo.ListAuthors(ctx, offset, limit)
	return total, items, classify(err)
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id uuid.UUID, req transport.AuthorRequest) (*models.Author, error) {
	fields, err := patchFields(req.Name, map[string]*string{"bio": req.Bio})
	if err != nil {
		return nil, err
	}
	var a models.Author
	if err := s.Repo.UpdateFields(ctx, &a, id, fields); err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (s *CatalogService) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	return classify(s.Repo.DeleteRef(ctx, &models.Author{}, "author_id", id))
}

func (s *CatalogService) CreatePublisher(ctx context.Context, req transport.PublisherRequest) (*models.Publisher, error) {
	p := &models.Publisher{Name: deref(req.Name), Website: deref(req.Website)}
	if err := required("name", p.Name); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (s *CatalogService) GetPublisher(ctx context.Context, id uuid.UUID) (*models.Publisher, error) {
	p, err := s.Repo.GetPublisher(ctx, id)
	return p, classify(err)
}

func (s *CatalogService) ListPublishers(ctx context.Context, offset, limit int) (int64, []models.Publisher, error) {
	total, items, err := s.Repo.ListPublishers(ctx, offset, limit)
	return total, items, classify(err)
}

func (s *CatalogService) UpdatePublisher(ctx context.Context, id uuid.UUID, req transport.PublisherRequest) (*models.Publisher, error) {
	fields, err := patchFields(req.Name, map[string]*string{"website": req.Website})
	if err != nil {
		return nil, err
	}
	var p models.Publisher
	if err := s.Repo.UpdateFields(ctx, &p, id, fields); err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (s *CatalogService) DeletePublisher(ctx context.Context, id uuid.UUID) error {
	return classify(s.Repo.DeleteRef(ctx, &models.Publisher{}, "publisher_id", id))
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.Category, error) {
	c := &models.Category{Name: deref(req.Name), Description: deref(req.Description)}
	if err := required("name", c.Name); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, classify(err)
	}
	return c, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	return c, classify(err)
}

func (s *CatalogService) ListCategories(ctx context.Context, offset, limit int) (int64, []models.Category, error) {
	total, items, err := s.Repo.ListCategories(ctx, offset, limit)
	return total, items, classify(err)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req transport.CategoryRequest) (*models.Category, error) {
	fields, err := patchFields(req.Name, map[string]*string{"description": req.Description})
	if err != nil {
		return nil, err
	}
	var c models.Category
	if err := s.Repo.UpdateFields(ctx, &c, id, fields); err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return classify(s.Repo.DeleteRef(ctx, &models.Category{}, "category_id", id))
}

func patchFields(name *string, rest map[string]*string) (map[string]any, error) {
	fields := map[string]any{}
	if name != nil {
		if err := required("name", *name); err != nil {
			return nil, err
		}
		fields["name"] = strings.TrimSpace(*name)
	}
	for col, v := range rest {
		if v != nil {
			fields[col] = *v
		}
	}
	return fields, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
