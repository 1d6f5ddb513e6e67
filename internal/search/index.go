// Package search keeps a full-text Elasticsearch index of the catalog.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/config"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

const mapping = `{
  "mappings": {
    "properties": {
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "author":      {"type": "text"},
      "isbn":        {"type": "keyword"},
      "price":       {"type": "scaled_float", "scaling_factor": 100}
    }
  }
}`

type document struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Author      string  `json:"author,omitempty"`
	ISBN        string  `json:"isbn,omitempty"`
	Price       float64 `json:"price"`
}

type BookIndex struct {
	Client *elasticsearch.Client
	Index  string
}

// NewClient connects to Elasticsearch and checks the cluster answers.
func NewClient(ctx context.Context, cfg config.Config) (*elasticsearch.Client, error) {
	l := logging.FromContext(ctx).With("component", "search")
	l.Info("es_connecting", "url", cfg.ESURL)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	l.Info("es_connected")
	return client, nil
}

func New(client *elasticsearch.Client, index string) *BookIndex {
	return &BookIndex{Client: client, Index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *BookIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.Client.Indices.Exists([]string{x.Index}, x.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.Client.Indices.Create(x.Index,
		x.Client.Indices.Create.WithContext(ctx),
		x.Client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Status(), res.Body)
	}
	return nil
}

func (x *BookIndex) IndexBook(ctx context.Context, b models.Book, author string) error {
	doc := document{
		Title:       b.Title,
		Description: b.Description,
		Author:      author,
		Price:       b.Price.InexactFloat64(),
	}
	if b.ISBN != nil {
		doc.ISBN = *b.ISBN
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := x.Client.Index(x.Index, bytes.NewReader(body),
		x.Client.Index.WithContext(ctx),
		x.Client.Index.WithDocumentID(b.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index book: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index book", res.Status(), res.Body)
	}
	return nil
}

// DeleteBook removes the document. A document that is already gone is not an error.
func (x *BookIndex) DeleteBook(ctx context.Context, id uuid.UUID) error {
	res, err := x.Client.Delete(x.Index, id.String(), x.Client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete book", res.Status(), res.Body)
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchBooks runs a fuzzy multi_match and returns the matching book ids by score.
func (x *BookIndex) SearchBooks(ctx context.Context, q string, offset, limit int) (int64, []uuid.UUID, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^2", "description", "author"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
	}
	body, err := json.Marshal(query)
	if err != nil {
		return 0, nil, err
	}

	res, err := x.Client.Search(
		x.Client.Search.WithContext(ctx),
		x.Client.Search.WithIndex(x.Index),
		x.Client.Search.WithBody(bytes.NewReader(body)),
		x.Client.Search.WithFrom(offset),
		x.Client.Search.WithSize(limit),
		x.Client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search books: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("search books", res.Status(), res.Body)
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return out.Hits.Total.Value, ids, nil
}

func responseError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("%s: %s: %s", op, status, b)
}
