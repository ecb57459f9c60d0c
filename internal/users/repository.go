package users

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// Storage keys owned by the repository.
const (
	KeyUsers       = "@users"
	KeyCurrentUser = "@current_user"
)

// Repository keeps every user in one JSON array under KeyUsers. Each mutation
// reads the array, changes it in memory and writes the whole array back, so
// readers always see a coherent snapshot. No lock is held across the
// read-modify-write: concurrent writers are last write wins.
type Repository struct {
	store  kv.Store
	logger *slog.Logger
}

// NewRepository constructs a repository over store.
func NewRepository(store kv.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger.With(slog.String("repo", "users"))}
}

// GetAll returns every stored user. A missing key is an empty list.
func (r *Repository) GetAll(ctx context.Context) ([]User, error) {
	raw, ok, err := r.store.Get(ctx, KeyUsers)
	if err != nil {
		r.logger.Error("load users", slog.Any("error", err))
		return nil, err
	}
	if !ok || raw == "" {
		return []User{}, nil
	}
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		r.logger.Error("decode users", slog.Any("error", err))
		return nil, shared.StorageError("decode "+KeyUsers, err)
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// GetByEmail finds a user by exact email match.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

// Save replaces the entry with the same email or appends a new one.
func (r *Repository) Save(ctx context.Context, user User) error {
	users, err := r.GetAll(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range users {
		if users[i].Email == user.Email {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}
	return r.Replace(ctx, users)
}

// Replace overwrites the whole collection.
func (r *Repository) Replace(ctx context.Context, users []User) error {
	if users == nil {
		users = []User{}
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return shared.StorageError("encode "+KeyUsers, err)
	}
	if err := r.store.Set(ctx, KeyUsers, string(raw)); err != nil {
		r.logger.Error("save users", slog.Any("error", err))
		return err
	}
	return nil
}

// Clear removes the collection and the current user pointer.
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.RemoveMany(ctx, KeyUsers, KeyCurrentUser); err != nil {
		r.logger.Error("clear users", slog.Any("error", err))
		return err
	}
	return nil
}

// SetCurrentUser stores the current user pointer.
func (r *Repository) SetCurrentUser(ctx context.Context, email string) error {
	if err := r.store.Set(ctx, KeyCurrentUser, email); err != nil {
		r.logger.Error("set current user", slog.Any("error", err))
		return err
	}
	return nil
}

// ClearCurrentUser removes the current user pointer.
func (r *Repository) ClearCurrentUser(ctx context.Context) error {
	if err := r.store.Remove(ctx, KeyCurrentUser); err != nil {
		r.logger.Error("clear current user", slog.Any("error", err))
		return err
	}
	return nil
}

// CurrentUserEmail returns the raw pointer; ok is false when unset.
func (r *Repository) CurrentUserEmail(ctx context.Context) (string, bool, error) {
	email, ok, err := r.store.Get(ctx, KeyCurrentUser)
	if err != nil {
		r.logger.Error("get current user", slog.Any("error", err))
		return "", false, err
	}
	return email, ok && email != "", nil
}

// GetCurrentUser resolves the pointer. It returns shared.ErrNotFound when the
// pointer is unset or names a user that no longer exists.
func (r *Repository) GetCurrentUser(ctx context.Context) (User, error) {
	email, ok, err := r.CurrentUserEmail(ctx)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return r.GetByEmail(ctx, email)
}

var _ RepositoryPort = (*Repository)(nil)
