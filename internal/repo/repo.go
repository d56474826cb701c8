package repo

import (
	"context"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

// Transaction runs fn against a repo bound to a single transaction. Any
// error returned by fn rolls the whole unit back.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

func (r *GormRepo) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) deleteByID(ctx context.Context, model any, id uint) error {
	res := r.DB.WithContext(ctx).Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// page applies offset/limit when limit is positive; otherwise all rows are returned.
func page(q *gorm.DB, offset, limit int) *gorm.DB {
	if limit <= 0 {
		return q
	}
	return q.Offset(offset).Limit(limit)
}
