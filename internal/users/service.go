package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// Demo account created by SeedDemo.
const (
	DemoEmail    = "demo@meditacion.app"
	DemoUsername = "Usuario Demo"
	DemoPassword = "demo123"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	GetAll(ctx context.Context) ([]User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Save(ctx context.Context, user User) error
	Replace(ctx context.Context, users []User) error
	Clear(ctx context.Context) error
	SetCurrentUser(ctx context.Context, email string) error
	ClearCurrentUser(ctx context.Context) error
	CurrentUserEmail(ctx context.Context) (string, bool, error)
	GetCurrentUser(ctx context.Context) (User, error)
}

// PasswordHasher turns a plaintext password into its stored form.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// SessionResetter clears the persisted auth session.
type SessionResetter interface {
	ResetSession(ctx context.Context) error
}

// LessonCounter reports the number of persisted lessons.
type LessonCounter interface {
	CountLessons(ctx context.Context) (int, error)
}

// ServiceDeps groups optional collaborators.
type ServiceDeps struct {
	Store    kv.Store
	Hasher   PasswordHasher
	Sessions SessionResetter
	Lessons  LessonCounter
	Logger   *slog.Logger
}

// Service handles profile edits and the admin data tools.
type Service struct {
	repo     RepositoryPort
	store    kv.Store
	hasher   PasswordHasher
	sessions SessionResetter
	lessons  LessonCounter
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, deps ServiceDeps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		store:    deps.Store,
		hasher:   deps.Hasher,
		sessions: deps.Sessions,
		lessons:  deps.Lessons,
		logger:   logger.With(slog.String("service", "users")),
	}
}

// NormalizeUsername trims and NFC-normalises a display name.
func NormalizeUsername(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.GetAll(ctx)
}

// Profile returns the user identified by email.
func (s *Service) Profile(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// UpdateProfile applies username and/or password edits.
func (s *Service) UpdateProfile(ctx context.Context, email string, update ProfileUpdate) (User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if update.Username != nil {
		name := NormalizeUsername(*update.Username)
		if name == "" {
			return User{}, shared.ValidationError("username must not be empty")
		}
		user.Username = name
	}
	if update.Password != nil {
		if *update.Password == "" {
			return User{}, shared.ValidationError("password must not be empty")
		}
		stored, err := s.hashPassword(*update.Password)
		if err != nil {
			return User{}, err
		}
		user.Password = stored
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account when no user with email exists.
// Existing records are left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (User, bool, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return User{}, false, err
	}
	stored, err := s.hashPassword(password)
	if err != nil {
		return User{}, false, err
	}
	admin := New("Administrador", email, stored)
	admin.Role = shared.RoleAdmin
	if err := s.repo.Save(ctx, admin); err != nil {
		return User{}, false, err
	}
	s.logger.Info("seeded admin user", slog.String("email", email))
	return admin, true, nil
}

// SeedDemo stores the demo user and points the current user at it.
func (s *Service) SeedDemo(ctx context.Context) (User, error) {
	stored, err := s.hashPassword(DemoPassword)
	if err != nil {
		return User{}, err
	}
	demo := New(DemoUsername, DemoEmail, stored)
	if err := s.repo.Save(ctx, demo); err != nil {
		return User{}, err
	}
	if err := s.repo.SetCurrentUser(ctx, demo.Email); err != nil {
		return User{}, err
	}
	return demo, nil
}

// ClearUsers deletes every non-admin user and resets the session state.
// It returns the number of removed users.
func (s *Service) ClearUsers(ctx context.Context) (int, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	kept := make([]User, 0, 1)
	for _, u := range all {
		if u.IsAdmin() {
			kept = append(kept, u)
		}
	}
	if err := s.repo.Replace(ctx, kept); err != nil {
		return 0, err
	}
	if err := s.resetSessionState(ctx); err != nil {
		return 0, err
	}
	removed := len(all) - len(kept)
	s.logger.Info("cleared users", slog.Int("removed", removed), slog.Int("admins_kept", len(kept)))
	return removed, nil
}

// ClearAll removes every persisted key, including settings and the session.
func (s *Service) ClearAll(ctx context.Context) error {
	if s.store == nil {
		if err := s.repo.Clear(ctx); err != nil {
			return err
		}
		return s.resetSessionState(ctx)
	}
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return err
	}
	if err := s.store.RemoveMany(ctx, keys...); err != nil {
		return err
	}
	s.logger.Info("cleared all data", slog.Int("keys", len(keys)))
	return nil
}

// Stats summarises stored data. The three reads are independent.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.repo.GetAll(gctx)
		if err != nil {
			return err
		}
		stats.TotalUsers = len(all)
		return nil
	})
	g.Go(func() error {
		if s.lessons == nil {
			return nil
		}
		n, err := s.lessons.CountLessons(gctx)
		if err != nil {
			return err
		}
		stats.TotalLessons = n
		return nil
	})
	g.Go(func() error {
		email, ok, err := s.repo.CurrentUserEmail(gctx)
		if err != nil {
			return err
		}
		if ok {
			stats.CurrentUser = &email
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (s *Service) resetSessionState(ctx context.Context) error {
	if err := s.repo.ClearCurrentUser(ctx); err != nil {
		return err
	}
	if s.sessions == nil {
		return nil
	}
	return s.sessions.ResetSession(ctx)
}

func (s *Service) hashPassword(password string) (string, error) {
	if s.hasher == nil {
		return password, nil
	}
	return s.hasher.Hash(password)
}
