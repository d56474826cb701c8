package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/dulcehogar/internal/hash"
	"github.com/Skotchmaster/dulcehogar/internal/logging"
	"github.com/Skotchmaster/dulcehogar/internal/models"
	"github.com/Skotchmaster/dulcehogar/internal/repo"
	"github.com/Skotchmaster/dulcehogar/internal/session"
)

type AuthService struct {
	Repo       *repo.GormRepo
	Secret     []byte
	SessionTTL time.Duration
	Events     Publisher
}

type LoginResult struct {
	Session   *session.Session
	Token     string
	ExpiresAt time.Time
}

// Authenticate checks the credentials and opens a persisted session.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "email", email)

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(notFound(err, "user"), ErrNotFound) {
			hash.BurnCompare(password)
			l.Warn("login_failed", "status", 401, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "reason", "cannot load user", "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	exp := now.Add(s.ttl())
	row := &models.Session{
		ID:        session.NewID(),
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		ExpiresAt: exp.Unix(),
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.PurgeSessions(ctx, user.ID, now.Unix()); err != nil {
			return err
		}
		return tx.CreateSession(ctx, row)
	})
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot persist session", "error", err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := &session.Session{ID: row.ID, UserID: user.ID, Name: user.Name, Role: user.Role, ExpiresAt: exp}
	token, err := session.Sign(*sess, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	publish(ctx, s.Events, TopicUsers, user.ID, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})
	l.Info("login_successful", "user_id", user.ID)
	return &LoginResult{Session: sess, Token: token, ExpiresAt: exp}, nil
}

// Resolve turns a cookie token back into a live session. Name and role come
// from the stored row so edits to the user apply to open sessions.
func (s *AuthService) Resolve(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := session.Parse(token, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	row, err := s.Repo.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(notFound(err, "session"), ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown session", ErrUnauthenticated)
		}
		return nil, err
	}
	if row.Revoked {
		return nil, fmt.Errorf("%w: session revoked", ErrUnauthenticated)
	}
	if row.UserID != claims.UserID || time.Now().Unix() >= row.ExpiresAt {
		return nil, fmt.Errorf("%w: session expired", ErrUnauthenticated)
	}

	return &session.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Role:      row.Role,
		ExpiresAt: time.Unix(row.ExpiresAt, 0).UTC(),
	}, nil
}

// LogOut revokes the session behind token. Unparseable or unknown tokens are
// already logged out, so they are not an error.
func (s *AuthService) LogOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := session.Parse(token, s.Secret)
	if err != nil {
		return nil
	}
	if err := s.Repo.RevokeSession(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) ttl() time.Duration {
	if s.SessionTTL <= 0 {
		return 12 * time.Hour
	}
	return s.SessionTTL
}

// RequireSession returns the session attached to ctx by the session middleware.
func RequireSession(ctx context.Context) (*session.Session, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return sess, nil
}

// RequireRole is an exact match: an admin does not pass an employee check.
func RequireRole(sess *session.Session, role string) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if sess.Role != role {
		return fmt.Errorf("%w: role %q required", ErrForbidden, role)
	}
	return nil
}
