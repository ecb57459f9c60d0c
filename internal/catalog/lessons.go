package catalog

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

// KeyLessons is the storage key of the persisted lesson list.
const KeyLessons = "@lessons"

// DemoLessons are written by SeedDemoLessons.
var DemoLessons = []Lesson{
	{LessonID: "sleep-1", LessonName: "Sueño Profundo", LessonType: "sueño", LessonTime: 15, LessonAudio: "file:///sleep-1.mp3"},
	{LessonID: "relaxation-1", LessonName: "Relajación Matutina", LessonType: "relajación", LessonTime: 10, LessonAudio: "file:///relaxation-1.mp3"},
	{LessonID: "selfawareness-1", LessonName: "Consciencia Plena", LessonType: "autoconciencia", LessonTime: 10, LessonAudio: "file:///selfawareness-1.mp3"},
}

// LessonRepository keeps lessons as one JSON array, rewritten on every save.
type LessonRepository struct {
	store  kv.Store
	logger *slog.Logger
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(store kv.Store, logger *slog.Logger) *LessonRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &LessonRepository{store: store, logger: logger.With(slog.String("repo", "lessons"))}
}

// Lessons returns every stored lesson.
func (r *LessonRepository) Lessons(ctx context.Context) ([]Lesson, error) {
	raw, ok, err := r.store.Get(ctx, KeyLessons)
	if err != nil {
		r.logger.Error("load lessons", slog.Any("error", err))
		return nil, err
	}
	if !ok || raw == "" {
		return []Lesson{}, nil
	}
	var lessons []Lesson
	if err := json.Unmarshal([]byte(raw), &lessons); err != nil {
		r.logger.Error("decode lessons", slog.Any("error", err))
		return nil, shared.StorageError("decode "+KeyLessons, err)
	}
	if lessons == nil {
		lessons = []Lesson{}
	}
	return lessons, nil
}

// Lesson returns the lesson with id or shared.ErrNotFound.
func (r *LessonRepository) Lesson(ctx context.Context, id string) (Lesson, error) {
	lessons, err := r.Lessons(ctx)
	if err != nil {
		return Lesson{}, err
	}
	for _, l := range lessons {
		if l.LessonID == id {
			return l, nil
		}
	}
	return Lesson{}, shared.ErrNotFound
}

// LessonsByType filters by lesson type. Matching ignores case and Unicode
// composition, so "Sueño" and "sueño" select the same lessons.
func (r *LessonRepository) LessonsByType(ctx context.Context, lessonType string) ([]Lesson, error) {
	lessons, err := r.Lessons(ctx)
	if err != nil {
		return nil, err
	}
	want := foldType(lessonType)
	out := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		if foldType(l.LessonType) == want {
			out = append(out, l)
		}
	}
	return out, nil
}

// SaveLesson replaces the lesson with the same id or appends it.
func (r *LessonRepository) SaveLesson(ctx context.Context, lesson Lesson) error {
	lessons, err := r.Lessons(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range lessons {
		if lessons[i].LessonID == lesson.LessonID {
			lessons[i] = lesson
			replaced = true
			break
		}
	}
	if !replaced {
		lessons = append(lessons, lesson)
	}
	raw, err := json.Marshal(lessons)
	if err != nil {
		return shared.StorageError("encode "+KeyLessons, err)
	}
	if err := r.store.Set(ctx, KeyLessons, string(raw)); err != nil {
		r.logger.Error("save lessons", slog.Any("error", err))
		return err
	}
	return nil
}

// SeedDemoLessons stores DemoLessons.
func (r *LessonRepository) SeedDemoLessons(ctx context.Context) error {
	for _, lesson := range DemoLessons {
		if err := r.SaveLesson(ctx, lesson); err != nil {
			return err
		}
	}
	return nil
}

// CountLessons reports the number of stored lessons.
func (r *LessonRepository) CountLessons(ctx context.Context) (int, error) {
	lessons, err := r.Lessons(ctx)
	if err != nil {
		return 0, err
	}
	return len(lessons), nil
}

func foldType(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
