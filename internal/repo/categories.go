package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context, offset, limit int) (int64, []models.Category, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Category
	if err := page(r.DB.WithContext(ctx).Order("id ASC"), offset, limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, "id = ?", id)
}

func (r *GormRepo) CategoryNameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.Category{}, "name = ? AND id <> ?", name, exceptID)
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(cat).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(cat).Error
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Category{}, id)
}

func (r *GormRepo) ProductIDsInCategory(ctx context.Context, id uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// DetachProducts clears the category reference of every product in the category.
// Backends without enforced foreign keys rely on this instead of ON DELETE SET NULL.
func (r *GormRepo) DetachProducts(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
}

func (r *GormRepo) DeleteProductsInCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Where("category_id = ?", id).Delete(&models.Product{}).Error
}
