package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/app"
	"github.com/betterfly/betterfly/internal/platform/kv"
	_ "github.com/betterfly/betterfly/testing"
)

// memoryOpener builds containers over one in-memory store shared by every
// command, the way a file-backed store would persist between runs.
func memoryOpener(t *testing.T) Opener {
	t.Helper()
	mr := miniredis.RunT(t)
	store := kv.NewMemoryStore()
	return func(context.Context) (*app.Container, error) {
		cfg := &app.Config{
			StoreDriver:        kv.DriverMemory,
			RedisAddr:          mr.Addr(),
			RateLimitPerMinute: 60,
			BcryptCost:         4,
			ReminderQueue:      "reminders",
			ReminderTimezone:   "UTC",
			SeedAdminEmail:     "root@example.com",
			SeedAdminPassword:  "rootpass",
			StoreTimeout:       time.Second,
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return app.NewContainer(cfg, nil, nopClose{store})
	}
}

// nopClose lets several commands share one in-memory store.
type nopClose struct{ kv.Store }

func (nopClose) Close() error { return nil }

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(open)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, path := range [][]string{
		{"serve"},
		{"admin", "seed"},
		{"admin", "stats"},
		{"admin", "clear-users"},
		{"admin", "clear-all"},
		{"reminders", "status"},
		{"reminders", "trigger"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("no-seed"))
}

func TestAdminCommands(t *testing.T) {
	open := memoryOpener(t)

	out, err := run(t, open, "admin", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, `"adminCreated": true`)
	assert.Contains(t, out, `"demoUser": "demo@meditacion.app"`)

	out, err = run(t, open, "admin", "stats")
	require.NoError(t, err)
	var stats struct {
		TotalUsers   int `json:"totalUsers"`
		TotalLessons int `json:"totalLessons"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 3, stats.TotalLessons)

	out, err = run(t, open, "admin", "clear-users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"removed":1}`, out)

	_, err = run(t, open, "admin", "clear-all")
	assert.ErrorIs(t, err, errConfirm)

	_, err = run(t, open, "admin", "clear-all", "--yes")
	require.NoError(t, err)

	out, err = run(t, open, "admin", "stats")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Zero(t, stats.TotalUsers)
}

func TestRemindersTrigger(t *testing.T) {
	open := memoryOpener(t)

	out, err := run(t, open, "reminders", "trigger", "daily")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sent":"daily"}`, out)

	_, err = run(t, open, "reminders", "trigger", "email")
	assert.Error(t, err, "no email reminder configured")

	_, err = run(t, open, "reminders", "trigger", "weekly")
	assert.Error(t, err)

	out, err = run(t, open, "reminders", "status")
	require.NoError(t, err)
	assert.Contains(t, out, `"emailActive": false`)
}
