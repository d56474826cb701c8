package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/hash"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/transport"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleEmployee
}

func (s *UserService) clean(in transport.UserInput, creating bool) (transport.UserInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if err := checkLength("name", in.Name, 1, 120); err != nil {
		return in, err
	}
	if err := checkEmail("email", in.Email); err != nil {
		return in, err
	}
	if !validRole(in.Role) {
		return in, invalid("role", "rol desconocido")
	}
	if creating && in.Password == "" {
		return in, invalid("password", "este campo es obligatorio")
	}
	return in, nil
}

func (s *UserService) List(ctx context.Context, p transport.Page) (int64, []models.User, error) {
	return s.Repo.ListUsers(ctx, p.Offset, p.Limit)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in transport.UserInput) (*models.User, error) {
	in, err := s.clean(in, true)
	if err != nil {
		return nil, err
	}
	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: pwHash}
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, in.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}
		return duplicate(tx.CreateUser(ctx, user), ErrDuplicateEmail, in.Email)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUsers, user.ID, map[string]any{
		"type":   "user_created",
		"userID": user.ID,
		"role":   user.Role,
	})
	return user, nil
}

// Update always rewrites name, email and role. The password hash changes only
// when in.Password is not empty.
func (s *UserService) Update(ctx context.Context, id uint, in transport.UserInput) (*models.User, error) {
	in, err := s.clean(in, false)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.GetUserByID(ctx, id)
		if err != nil {
			return notFound(err, "user")
		}
		taken, err := tx.EmailTaken(ctx, in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, in.Email)
		}

		u.Name, u.Email, u.Role = in.Name, in.Email, in.Role
		if in.Password != "" {
			pwHash, err := hash.HashPassword(in.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			u.PasswordHash = pwHash
		}
		if err := tx.SaveUser(ctx, u); err != nil {
			return duplicate(err, ErrDuplicateEmail, in.Email)
		}
		if err := tx.RefreshUserSessions(ctx, u.ID, u.Name, u.Role); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUsers, user.ID, map[string]any{
		"type":   "user_updated",
		"userID": user.ID,
		"role":   user.Role,
	})
	return user, nil
}

// Delete removes a user and revokes its sessions. actorID is the caller; an
// account cannot delete itself.
func (s *UserService) Delete(ctx context.Context, actorID, id uint) error {
	if actorID == id {
		return invalid("id", "no puedes eliminar tu propia cuenta")
	}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.DeleteUser(ctx, id); err != nil {
			return notFound(err, "user")
		}
		return tx.RevokeUserSessions(ctx, id)
	})
	if err != nil {
		return err
	}

	publish(ctx, s.Events, TopicUsers, id, map[string]any{
		"type":   "user_deleted",
		"userID": id,
	})
	return nil
}

// SetPassword replaces the hash of the user with the given email and revokes
// its open sessions.
func (s *UserService) SetPassword(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if password == "" {
		return invalid("password", "este campo es obligatorio")
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		u, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return notFound(err, "user "+email)
		}
		u.PasswordHash = pwHash
		if err := tx.SaveUser(ctx, u); err != nil {
			return err
		}
		return tx.RevokeUserSessions(ctx, u.ID)
	})
}

// Verify reports whether password matches the stored hash for email.
func (s *UserService) Verify(ctx context.Context, email, password string) (bool, error) {
	u, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(notFound(err, "user"), ErrNotFound) {
			hash.BurnCompare(password)
			return false, nil
		}
		return false, err
	}
	return hash.CheckPassword(u.PasswordHash, password), nil
}

// Bootstrap creates the configured admin account when no user holds its email.
func (s *UserService) Bootstrap(ctx context.Context, cfg config.AdminConfig) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "users.bootstrap")
	if !cfg.Bootstrap {
		return false, nil
	}

	_, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(cfg.Email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(notFound(err, "user"), ErrNotFound) {
		return false, err
	}

	_, err = s.Create(ctx, transport.UserInput{
		Name:     cfg.Name,
		Email:    cfg.Email,
		Role:     models.RoleAdmin,
		Password: cfg.Password,
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	if cfg.Password == config.DefaultAdminPassword {
		l.Warn("default_admin_password", "email", normalizeEmail(cfg.Email), "reason", "admin created with the built-in password; rotate it with set-password")
	}
	l.Info("admin_created", "email", normalizeEmail(cfg.Email))
	return true, nil
}
