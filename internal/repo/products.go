package repo

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Product
	q := r.DB.WithContext(ctx).Preload("Category").Order("id ASC")
	if err := page(q, offset, limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").First(&prod, id).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

// GetProductsByIDs loads the given products keeping the order of ids. Unknown ids are skipped.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) ProductNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.Product{}, "name = ? AND id <> ?", name, exceptID)
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(prod).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(prod).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Product{}, id)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// SearchProducts matches q as a case-insensitive substring of the product name.
func (r *GormRepo) SearchProducts(ctx context.Context, q string) ([]models.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	var items []models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Where("LOWER(name) LIKE ? ESCAPE '!'", pattern).
		Order("id ASC").
		Find(&items).Error
	return items, err
}
