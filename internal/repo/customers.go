package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) ListCustomers(ctx context.Context, offset, limit int) (int64, []models.Customer, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Customer
	if err := page(r.DB.WithContext(ctx).Order("id ASC"), offset, limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error
	return n, err
}

func (r *GormRepo) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CustomerExists(ctx context.Context, id uint) (bool, error) {
	return r.exists(ctx, &models.Customer{}, "id = ?", id)
}

func (r *GormRepo) CustomerEmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.Customer{}, "email = ? AND id <> ?", email, exceptID)
}

func (r *GormRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

func (r *GormRepo) SaveCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *GormRepo) DeleteCustomer(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Customer{}, id)
}
