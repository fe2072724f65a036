// Package search keeps blog posts and templates in Elasticsearch and runs
// full-text queries against them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

const (
	KindBlog     = "blog"
	KindTemplate = "template"

	BlogIndex     = "scriptorium_blogs"
	TemplateIndex = "scriptorium_templates"
)

var (
	ErrDisabled    = errors.New("search: elasticsearch not configured")
	ErrUnknownKind = errors.New("search: unknown kind")
)

type Document struct {
	ID     uint     `json:"id"`
	Kind   string   `json:"kind"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Tags   []string `json:"tags"`
	Hidden bool     `json:"hidden"`
}

type Index interface {
	Put(ctx context.Context, doc Document) error
	Remove(ctx context.Context, kind string, id uint) error
	Search(ctx context.Context, kind, query string, from, size int) (int64, []uint, error)
}

func indexFor(kind string) (string, error) {
	switch kind {
	case KindBlog:
		return BlogIndex, nil
	case KindTemplate:
		return TemplateIndex, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("search: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("search: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

type Elastic struct {
	ES *elasticsearch.Client
}

func (e *Elastic) Put(ctx context.Context, doc Document) error {
	index, err := indexFor(doc.Kind)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("search: encode: %w", err)
	}

	res, err := e.ES.Index(index, &buf,
		e.ES.Index.WithContext(ctx),
		e.ES.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("search: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search: index: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Remove(ctx context.Context, kind string, id uint) error {
	index, err := indexFor(kind)
	if err != nil {
		return err
	}

	res, err := e.ES.Delete(index, strconv.FormatUint(uint64(id), 10), e.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("search: delete: %s", res.Status())
	}
	return nil
}

// Search returns matching ids ranked by relevance. Hidden documents are
// filtered out; callers still load rows from the database.
func (e *Elastic) Search(ctx context.Context, kind, query string, from, size int) (int64, []uint, error) {
	index, err := indexFor(kind)
	if err != nil {
		return 0, nil, err
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "body", "tags"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"hidden": false},
				},
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode: %w", err)
	}

	res, err := e.ES.Search(
		e.ES.Search.WithContext(ctx),
		e.ES.Search.WithIndex(index),
		e.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: query: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]uint, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		ids[i] = hit.Source.ID
	}
	return r.Hits.Total.Value, ids, nil
}

// Nop is used when ES_URL is empty.
type Nop struct{}

func (Nop) Put(context.Context, Document) error        { return nil }
func (Nop) Remove(context.Context, string, uint) error { return nil }
func (Nop) Search(context.Context, string, string, int, int) (int64, []uint, error) {
	return 0, nil, ErrDisabled
}
