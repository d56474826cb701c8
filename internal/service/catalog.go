package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

// ProductIndex is an optional search index kept in step with the products table.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	SearchProductIDs(ctx context.Context, q string) ([]uint, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Policy DeletePolicy
	Events Publisher
	Index  ProductIndex
}

func cleanCategory(in transport.CategoryInput) (transport.CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := checkLength("name", in.Name, 2, 100); err != nil {
		return in, err
	}
	if err := checkMax("description", in.Description, 200); err != nil {
		return in, err
	}
	return in, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, p transport.Page) (int64, []models.Category, error) {
	return s.Repo.ListCategories(ctx, p.Offset, p.Limit)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "category")
	}
	return cat, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in transport.CategoryInput) (*models.Category, error) {
	in, err := cleanCategory(in)
	if err != nil {
		return nil, err
	}
	cat := &models.Category{Name: in.Name, Description: in.Description}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.CategoryNameTaken(ctx, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateName, in.Name)
		}
		return duplicate(tx.CreateCategory(ctx, cat), ErrDuplicateName, in.Name)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicCatalog, cat.ID, map[string]any{
		"type":       "category_created",
		"categoryID": cat.ID,
		"name":       cat.Name,
	})
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, in transport.CategoryInput) (*models.Category, error) {
	in, err := cleanCategory(in)
	if err != nil {
		return nil, err
	}
	var (
		cat      *models.Category
		affected []uint
	)
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCategory(ctx, id)
		if err != nil {
			return notFound(err, "category")
		}
		taken, err := tx.CategoryNameTaken(ctx, in.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateName, in.Name)
		}
		c.Name, c.Description = in.Name, in.Description
		if err := tx.SaveCategory(ctx, c); err != nil {
			return duplicate(err, ErrDuplicateName, in.Name)
		}
		affected, err = tx.ProductIDsInCategory(ctx, id)
		if err != nil {
			return err
		}
		cat = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, affected...)
	publish(ctx, s.Events, TopicCatalog, cat.ID, map[string]any{
		"type":       "category_updated",
		"categoryID": cat.ID,
		"name":       cat.Name,
	})
	return cat, nil
}

// DeleteCategory applies the configured policy to the category's products.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	policy := s.Policy
	if policy == "" {
		policy = PolicySetNull
	}

	var affected []uint
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return notFound(err, "category")
		}
		ids, err := tx.ProductIDsInCategory(ctx, id)
		if err != nil {
			return err
		}
		affected = ids

		switch policy {
		case PolicyRestrict:
			if len(ids) > 0 {
				return fmt.Errorf("%w: category has %d products", ErrInUse, len(ids))
			}
		case PolicyCascade:
			if err := tx.DeleteProductsInCategory(ctx, id); err != nil {
				return err
			}
		default:
			if err := tx.DetachProducts(ctx, id); err != nil {
				return err
			}
		}
		return notFound(tx.DeleteCategory(ctx, id), "category")
	})
	if err != nil {
		return err
	}

	if policy == PolicyCascade {
		for _, pid := range affected {
			s.unindex(ctx, pid)
		}
	} else {
		s.reindex(ctx, affected...)
	}
	publish(ctx, s.Events, TopicCatalog, id, map[string]any{
		"type":       "category_deleted",
		"categoryID": id,
		"policy":     string(policy),
		"products":   len(affected),
	})
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, p transport.Page) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, p.Offset, p.Limit)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return prod, nil
}

func (s *CatalogService) checkProduct(ctx context.Context, tx *repo.GormRepo, in transport.ProductInput) (transport.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkLength("name", in.Name, 2, 120); err != nil {
		return in, err
	}
	if in.Quantity < 0 {
		return in, invalid("quantity", "la cantidad no puede ser negativa")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return in, invalid("price", "el precio debe ser un número válido")
	}
	if in.Price < 0 {
		return in, invalid("price", "el precio no puede ser negativo")
	}
	if in.CategoryID != nil {
		if *in.CategoryID == 0 {
			in.CategoryID = nil
			return in, nil
		}
		ok, err := tx.CategoryExists(ctx, *in.CategoryID)
		if err != nil {
			return in, err
		}
		if !ok {
			return in, invalid("category_id", "categoría desconocida")
		}
	}
	return in, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in transport.ProductInput) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		in, err := s.checkProduct(ctx, tx, in)
		if err != nil {
			return err
		}
		taken, err := tx.ProductNameTaken(ctx, in.Name, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateName, in.Name)
		}
		p := &models.Product{Name: in.Name, Quantity: in.Quantity, Price: in.Price, CategoryID: in.CategoryID}
		if err := tx.CreateProduct(ctx, p); err != nil {
			return duplicate(err, ErrDuplicateName, in.Name)
		}
		prod = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, prod.ID)
	publish(ctx, s.Events, TopicCatalog, prod.ID, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
		"quantity":  prod.Quantity,
	})
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, in transport.ProductInput) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err, "product")
		}
		in, err := s.checkProduct(ctx, tx, in)
		if err != nil {
			return err
		}
		taken, err := tx.ProductNameTaken(ctx, in.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateName, in.Name)
		}
		p.Name, p.Quantity, p.Price, p.CategoryID = in.Name, in.Quantity, in.Price, in.CategoryID
		p.Category = nil
		if err := tx.SaveProduct(ctx, p); err != nil {
			return duplicate(err, ErrDuplicateName, in.Name)
		}
		prod = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.reindex(ctx, prod.ID)
	publish(ctx, s.Events, TopicCatalog, prod.ID, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price,
		"quantity":  prod.Quantity,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	s.unindex(ctx, id)
	publish(ctx, s.Events, TopicCatalog, id, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

// SearchProducts matches q as a case-insensitive substring of product names.
// The index answers when configured; the database scan is the fallback.
func (s *CatalogService) SearchProducts(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		_, items, err := s.Repo.ListProducts(ctx, 0, 0)
		return items, err
	}

	if s.Index != nil {
		ids, err := s.Index.SearchProductIDs(ctx, q)
		if err == nil {
			return s.Repo.GetProductsByIDs(ctx, ids)
		}
		logging.FromContext(ctx).Warn("product_search_fallback", "reason", "index query failed", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q)
}

// Reindex pushes every product into the index. Used at startup.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	_, items, err := s.Repo.ListProducts(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("index product %d: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}

func (s *CatalogService) reindex(ctx context.Context, ids ...uint) {
	if s.Index == nil || len(ids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	l := logging.FromContext(ctx)

	items, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		l.Error("product_index_error", "reason", "cannot load products", "error", err)
		return
	}
	for i := range items {
		if err := s.Index.IndexProduct(ctx, &items[i]); err != nil {
			l.Error("product_index_error", "productID", items[i].ID, "error", err)
		}
	}
}

func (s *CatalogService) unindex(ctx context.Context, id uint) {
	if s.Index == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.Index.DeleteProduct(ctx, id); err != nil {
		logging.FromContext(ctx).Error("product_unindex_error", "productID", id, "error", err)
	}
}
