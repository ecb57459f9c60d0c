package users_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
	"github.com/betterfly/betterfly/internal/users"
)

type failingStore struct {
	kv.Store
	err error
}

func (f failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.err
}

func (f failingStore) Set(ctx context.Context, key, value string) error {
	return f.err
}

func newRepo(t *testing.T) (*users.Repository, *kv.MemoryStore) {
	t.Helper()
	store := kv.NewMemoryStore()
	return users.NewRepository(store, nil), store
}

func TestRepositoryEmpty(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRepositorySaveUpsertsByEmail(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, users.New("Ana", "ana@example.com", "pw")))
	require.NoError(t, repo.Save(ctx, users.New("Ben", "ben@example.com", "pw")))

	updated := users.New("Ana B", "ana@example.com", "pw")
	updated.Streak = 4
	require.NoError(t, repo.Save(ctx, updated))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana B", all[0].Username)
	assert.Equal(t, 4, all[0].Streak)
	assert.Equal(t, "ben@example.com", all[1].Email)
}

func fullRecord() users.User {
	last := "2024-03-09"
	return users.User{
		Username:               "Root",
		Email:                  "root@example.com",
		Password:               "$2a$10$abcdefghijklmnopqrstuu",
		Role:                   shared.RoleAdmin,
		Streak:                 3,
		LongestStreak:          7,
		TotalSessions:          12,
		TotalMinutes:           14.13,
		SleepCompleted:         4,
		RelaxationCompleted:    5,
		SelfAwarenessCompleted: 3,
		Betterflies:            61,
		LastLessonDate:         &last,
		Achievements:           []string{"first-lesson", "week-streak"},
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	sqlite, err := kv.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	stores := map[string]kv.Store{
		"memory": kv.NewMemoryStore(),
		"sqlite": sqlite,
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			repo := users.NewRepository(store, nil)
			saved := fullRecord()
			require.NoError(t, repo.Save(ctx, users.New("Ben", "ben@example.com", "pw")))
			require.NoError(t, repo.Save(ctx, saved))

			got, err := repo.GetByEmail(ctx, saved.Email)
			require.NoError(t, err)
			require.Equal(t, saved, got)
		})
	}
}

func TestPublicOmitsPassword(t *testing.T) {
	u := fullRecord()
	raw, err := json.Marshal(u.Public())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"password"`)

	var back users.User
	require.NoError(t, json.Unmarshal(raw, &back))
	u.Password = ""
	assert.Equal(t, u, back)
}

func TestRepositoryPersistsWholeCollection(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, users.New("Ana", "ana@example.com", "pw")))

	raw, ok, err := store.Get(ctx, users.KeyUsers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{
		"username":"Ana","email":"ana@example.com","password":"pw","role":"user",
		"streak":0,"longestStreak":0,"totalSessions":0,"totalMinutes":0,
		"sleepCompleted":0,"relaxationCompleted":0,"selfAwarenessCompleted":0,
		"betterflies":0,"lastLessonDate":null,"achievements":[]
	}]`, raw)
}

func TestRepositoryCurrentUserPointer(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, users.New("Ana", "ana@example.com", "pw")))
	require.NoError(t, repo.SetCurrentUser(ctx, "ana@example.com"))

	raw, ok, err := store.Get(ctx, users.KeyCurrentUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", raw)

	current, err := repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", current.Username)

	require.NoError(t, repo.SetCurrentUser(ctx, "gone@example.com"))
	_, err = repo.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, repo.ClearCurrentUser(ctx))
	_, ok, err = repo.CurrentUserEmail(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepositoryCorruptCollectionIsStorageError(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, users.KeyUsers, "{not json"))

	_, err := repo.GetAll(ctx)
	assert.ErrorIs(t, err, shared.ErrStorage)
}

func TestRepositoryPropagatesStoreFailure(t *testing.T) {
	boom := shared.StorageError("get", assert.AnError)
	repo := users.NewRepository(failingStore{Store: kv.NewMemoryStore(), err: boom}, nil)

	_, err := repo.GetAll(context.Background())
	assert.ErrorIs(t, err, shared.ErrStorage)

	err = repo.Save(context.Background(), users.New("Ana", "ana@example.com", "pw"))
	assert.ErrorIs(t, err, shared.ErrStorage)
}

func TestRepositoryClear(t *testing.T) {
	repo, store := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, users.New("Ana", "ana@example.com", "pw")))
	require.NoError(t, repo.SetCurrentUser(ctx, "ana@example.com"))

	require.NoError(t, repo.Clear(ctx))

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
