package repo

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var users []models.User
	if err := page(r.DB.WithContext(ctx).Order("id ASC"), offset, limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

// EmailTaken reports whether another user (not exceptID) already uses email.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	return r.exists(ctx, &models.User{}, "email = ? AND id <> ?", email, exceptID)
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(u).Error
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(u).Error
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.deleteByID(ctx, &models.User{}, id)
}
