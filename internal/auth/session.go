package auth

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// SessionStore persists the single device session as JSON under KeySession.
type SessionStore struct {
	store  kv.Store
	logger *slog.Logger
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(store kv.Store, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{store: store, logger: logger}
}

// Load returns the stored session; a missing key is a logged out session.
func (s *SessionStore) Load(ctx context.Context) (Session, error) {
	raw, ok, err := s.store.Get(ctx, KeySession)
	if err != nil {
		s.logger.Error("load session", slog.Any("error", err))
		return loggedOut(), err
	}
	if !ok || raw == "" {
		return loggedOut(), nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Error("decode session", slog.Any("error", err))
		return loggedOut(), shared.StorageError("decode "+KeySession, err)
	}
	return sess, nil
}

// Commit writes sess.
func (s *SessionStore) Commit(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return shared.StorageError("encode "+KeySession, err)
	}
	if err := s.store.Set(ctx, KeySession, string(payload)); err != nil {
		s.logger.Error("save session", slog.Any("error", err))
		return err
	}
	return nil
}

// Destroy writes a logged out session.
func (s *SessionStore) Destroy(ctx context.Context) error {
	return s.Commit(ctx, loggedOut())
}
