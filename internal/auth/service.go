package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/betterfly/betterfly/internal/shared"
	"github.com/betterfly/betterfly/internal/users"
)

// UserStore is the slice of the user repository auth depends on.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	Save(ctx context.Context, user users.User) error
	SetCurrentUser(ctx context.Context, email string) error
}

// Service wraps authentication business rules.
type Service struct {
	users    UserStore
	sessions *SessionStore
	hasher   *Hasher
	logger   *slog.Logger
}

// NewService constructs a new Service.
func NewService(userStore UserStore, sessions *SessionStore, hasher *Hasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if hasher == nil {
		hasher = NewHasher(0)
	}
	return &Service{
		users:    userStore,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger.With(slog.String("service", "auth")),
	}
}

// Login checks credentials and persists a logged in session plus the current
// user pointer. Unknown emails and wrong passwords both yield
// shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	match, legacy := s.hasher.Check(user.Password, password)
	if !match {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if legacy {
		user, err = s.upgradePassword(ctx, user, password)
		if err != nil {
			return users.User{}, err
		}
	}
	if err := s.startSession(ctx, email); err != nil {
		return users.User{}, err
	}
	return user, nil
}

// Register creates a zero-initialised user and logs it in.
func (s *Service) Register(ctx context.Context, username, email, password string) (users.User, error) {
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return users.User{}, shared.ErrAlreadyExists
	case !errors.Is(err, shared.ErrNotFound):
		return users.User{}, err
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return users.User{}, err
	}
	user := users.New(users.NormalizeUsername(username), email, hashed)
	if err := s.users.Save(ctx, user); err != nil {
		return users.User{}, err
	}
	if err := s.startSession(ctx, email); err != nil {
		return users.User{}, err
	}
	s.logger.Info("registered user", slog.String("email", email))
	return user, nil
}

// Logout clears the session flag. The current user pointer is left untouched.
func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Destroy(ctx)
}

// ResetSession is Logout under the name the admin tools expect.
func (s *Service) ResetSession(ctx context.Context) error {
	return s.sessions.Destroy(ctx)
}

// Session returns the persisted session.
func (s *Service) Session(ctx context.Context) (Session, error) {
	return s.sessions.Load(ctx)
}

// IsUserLoggedIn reports whether the session flag is set and names an email.
// A failed read counts as logged out.
func (s *Service) IsUserLoggedIn(ctx context.Context) bool {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return false
	}
	return sess.Active()
}

// CurrentUser resolves the logged in user. When the session names a user
// that no longer exists the session is destroyed and shared.ErrNotFound is
// returned.
func (s *Service) CurrentUser(ctx context.Context) (users.User, error) {
	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return users.User{}, err
	}
	if !sess.Active() {
		return users.User{}, shared.ErrUnauthenticated
	}
	user, err := s.users.GetByEmail(ctx, sess.Email())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("session user vanished", slog.String("email", sess.Email()))
			if derr := s.sessions.Destroy(ctx); derr != nil {
				return users.User{}, derr
			}
		}
		return users.User{}, err
	}
	return user, nil
}

// IsAdmin reports whether the logged in user has the admin role.
func (s *Service) IsAdmin(ctx context.Context) bool {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return false
	}
	return user.IsAdmin()
}

func (s *Service) startSession(ctx context.Context, email string) error {
	if err := s.sessions.Commit(ctx, loggedIn(email)); err != nil {
		return err
	}
	return s.users.SetCurrentUser(ctx, email)
}

func (s *Service) upgradePassword(ctx context.Context, user users.User, password string) (users.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return users.User{}, err
	}
	user.Password = hashed
	if err := s.users.Save(ctx, user); err != nil {
		return users.User{}, err
	}
	s.logger.Info("upgraded legacy password", slog.String("email", user.Email))
	return user, nil
}
