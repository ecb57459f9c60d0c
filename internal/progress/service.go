package progress

import (
	"context"
	"log/slog"

	"github.com/betterfly/betterfly/internal/catalog"
	"github.com/betterfly/betterfly/internal/platform/clock"
	"github.com/betterfly/betterfly/internal/users"
)

// Repository is the user storage the service reads and writes.
type Repository interface {
	GetAll(ctx context.Context) ([]users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
	Save(ctx context.Context, user users.User) error
}

// SessionCatalog resolves catalog sessions by id.
type SessionCatalog interface {
	Session(ctx context.Context, id string) (catalog.Session, error)
}

// Recorder receives completed-lesson events for metrics.
type Recorder interface {
	LessonCompleted(category string, minutes float64, earned int)
}

// Completion is the outcome of a completed lesson.
type Completion struct {
	User              users.User `json:"user"`
	BetterfliesEarned int        `json:"betterfliesEarned"`
}

// Summary is a user with the derived favorite category.
type Summary struct {
	User     users.User `json:"user"`
	Favorite *Favorite  `json:"favoriteCategory"`
}

// ServiceParams groups the service dependencies.
type ServiceParams struct {
	Repo     Repository
	Catalog  SessionCatalog
	Clock    clock.Clock
	Recorder Recorder
	Logger   *slog.Logger
}

// Service loads users, runs the engine and persists the result.
type Service struct {
	repo     Repository
	catalog  SessionCatalog
	clock    clock.Clock
	recorder Recorder
	logger   *slog.Logger
}

// NewService constructs a Service. A nil clock reads the UTC wall clock.
func NewService(params ServiceParams) *Service {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := params.Clock
	if clk == nil {
		clk = clock.NewSystem(nil)
	}
	return &Service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		clock:    clk,
		recorder: params.Recorder,
		logger:   logger.With(slog.String("service", "progress")),
	}
}

// Complete records a finished lesson for email. A missing user yields
// shared.ErrNotFound and nothing is written.
func (s *Service) Complete(ctx context.Context, email string, minutes float64, categoryID string) (Completion, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Completion{}, err
	}
	updated, earned, err := CompleteLesson(user, minutes, categoryID, s.clock.Today())
	if err != nil {
		return Completion{}, err
	}
	if err := s.repo.Save(ctx, updated); err != nil {
		return Completion{}, err
	}
	if s.recorder != nil {
		s.recorder.LessonCompleted(categoryID, Round2(minutes), earned)
	}
	s.logger.Info("lesson completed",
		slog.String("email", email),
		slog.String("category", categoryID),
		slog.Float64("minutes", Round2(minutes)),
		slog.Int("streak", updated.Streak),
		slog.Int("betterflies_earned", earned),
	)
	return Completion{User: updated, BetterfliesEarned: earned}, nil
}

// CompleteSession completes a catalog session, taking duration and category
// from the catalog entry.
func (s *Service) CompleteSession(ctx context.Context, email, sessionID string) (Completion, error) {
	session, err := s.catalog.Session(ctx, sessionID)
	if err != nil {
		return Completion{}, err
	}
	return s.Complete(ctx, email, session.Duration, session.Category.ID)
}

// CheckStreak persists a streak reset when the user's streak went stale.
func (s *Service) CheckStreak(ctx context.Context, email string) (users.User, bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return users.User{}, false, err
	}
	updated, changed, err := CheckStreak(user, s.clock.Today())
	if err != nil || !changed {
		return user, false, err
	}
	if err := s.repo.Save(ctx, updated); err != nil {
		return users.User{}, false, err
	}
	s.logger.Info("streak reset", slog.String("email", email), slog.Int("previous", user.Streak))
	return updated, true, nil
}

// SweepStreaks resets every stale streak and reports how many were reset.
func (s *Service) SweepStreaks(ctx context.Context) (int, error) {
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	today := s.clock.Today()
	reset := 0
	for _, user := range all {
		updated, changed, err := CheckStreak(user, today)
		if err != nil {
			s.logger.Warn("skip streak sweep", slog.String("email", user.Email), slog.Any("error", err))
			continue
		}
		if !changed {
			continue
		}
		if err := s.repo.Save(ctx, updated); err != nil {
			return reset, err
		}
		reset++
	}
	s.logger.Info("streak sweep finished", slog.Int("users", len(all)), slog.Int("reset", reset))
	return reset, nil
}

// Summary returns the user and its favorite category.
func (s *Service) Summary(ctx context.Context, email string) (Summary, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{User: user}
	if fav, ok := FavoriteCategory(user); ok {
		out.Favorite = &fav
	}
	return out, nil
}
