package repo

import (
	"context"

	"github.com/Skotchmaster/dulcehogar/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeUserSessions(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}

// RefreshUserSessions copies a user's current name and role onto its live sessions.
func (r *GormRepo) RefreshUserSessions(ctx context.Context, userID uint, name, role string) error {
	return r.DB.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"name": name, "role": role}).Error
}

func (r *GormRepo) PurgeSessions(ctx context.Context, userID uint, now int64) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND (revoked = ? OR expires_at < ?)", userID, true, now).
		Delete(&models.Session{}).Error
}

func (r *GormRepo) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Session{}).Count(&n).Error
	return n, err
}
