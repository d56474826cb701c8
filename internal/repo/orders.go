package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) ListOrders(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Order
	q := r.DB.WithContext(ctx).Preload("Customer").Order("id ASC")
	if err := page(q, offset, limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Customer").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) CountOrdersForCustomer(ctx context.Context, customerID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(o).Error
}

func (r *GormRepo) SaveOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(o).Error
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.Order{}, id)
}
