package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

const maxHits = 1000

// ProductIndex keeps product names searchable. Matching is a
// case-insensitive substring over a lowercased keyword field.
type ProductIndex struct {
	ES    *elasticsearch.Client
	Index string
	// PageSize bounds each search request; zero means maxHits.
	PageSize int
}

type productDoc struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	NameLower string  `json:"name_lower"`
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

var mapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":         map[string]any{"type": "long"},
			"name":       map[string]any{"type": "text"},
			"name_lower": map[string]any{"type": "keyword"},
			"category":   map[string]any{"type": "keyword"},
			"quantity":   map[string]any{"type": "integer"},
			"price":      map[string]any{"type": "double"},
		},
	},
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (p *ProductIndex) EnsureIndex(ctx context.Context) error {
	res, err := p.ES.Indices.Exists([]string{p.Index}, p.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: exists %s: %w", p.Index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: exists %s: %s", p.Index, res.Status())
	}

	body, err := encode(mapping)
	if err != nil {
		return err
	}
	res, err = p.ES.Indices.Create(p.Index,
		p.ES.Indices.Create.WithContext(ctx),
		p.ES.Indices.Create.WithBody(body),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create %s: %w", p.Index, err)
	}
	return check(res, "create index")
}

func (p *ProductIndex) IndexProduct(ctx context.Context, prod *models.Product) error {
	body, err := encode(productDoc{
		ID:        prod.ID,
		Name:      prod.Name,
		NameLower: strings.ToLower(prod.Name),
		Category:  prod.CategoryName(),
		Quantity:  prod.Quantity,
		Price:     prod.Price,
	})
	if err != nil {
		return err
	}
	res, err := p.ES.Index(p.Index, body,
		p.ES.Index.WithContext(ctx),
		p.ES.Index.WithDocumentID(docID(prod.ID)),
		p.ES.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index product %d: %w", prod.ID, err)
	}
	return check(res, "index product")
}

// DeleteProduct treats a missing document as already deleted.
func (p *ProductIndex) DeleteProduct(ctx context.Context, id uint) error {
	res, err := p.ES.Delete(p.Index, docID(id),
		p.ES.Delete.WithContext(ctx),
		p.ES.Delete.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete product %d: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return check(res, "delete product")
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// SearchProductIDs returns every matching id in ascending order, paging
// through the index with search_after.
func (p *ProductIndex) SearchProductIDs(ctx context.Context, q string) ([]uint, error) {
	size := p.PageSize
	if size <= 0 {
		size = maxHits
	}
	pattern := "*" + wildcardEscaper.Replace(strings.ToLower(q)) + "*"

	var ids []uint
	var after []any
	for {
		page, err := p.searchPage(ctx, pattern, size, after)
		if err != nil {
			return nil, err
		}
		ids = append(ids, page...)
		if len(page) < size {
			return ids, nil
		}
		after = []any{page[len(page)-1]}
	}
}

func (p *ProductIndex) searchPage(ctx context.Context, pattern string, size int, after []any) ([]uint, error) {
	req := map[string]any{
		"size":    size,
		"_source": []string{"id"},
		"sort":    []any{map[string]any{"id": "asc"}},
		"query": map[string]any{
			"wildcard": map[string]any{
				"name_lower": map[string]any{"value": pattern},
			},
		},
	}
	if after != nil {
		req["search_after"] = after
	}
	body, err := encode(req)
	if err != nil {
		return nil, err
	}

	res, err := p.ES.Search(
		p.ES.Search.WithContext(ctx),
		p.ES.Search.WithIndex(p.Index),
		p.ES.Search.WithBody(body),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elasticsearch: decode search: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

func docID(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func encode(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("elasticsearch: encode: %w", err)
	}
	return &buf, nil
}

func check(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: %s: %s: %s", op, res.Status(), msg)
	}
	return nil
}
