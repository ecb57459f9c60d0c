package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/catalog"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/shared"
)

func TestLessonRepository(t *testing.T) {
	repo := catalog.NewLessonRepository(kv.NewMemoryStore(), nil)
	ctx := context.Background()

	lessons, err := repo.Lessons(ctx)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	require.NoError(t, repo.SeedDemoLessons(ctx))
	require.NoError(t, repo.SeedDemoLessons(ctx))

	count, err := repo.CountLessons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	lesson, err := repo.Lesson(ctx, "sleep-1")
	require.NoError(t, err)
	assert.Equal(t, 15.0, lesson.LessonTime)

	_, err = repo.Lesson(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	updated := lesson
	updated.LessonName = "Sueño Reparador"
	require.NoError(t, repo.SaveLesson(ctx, updated))
	lesson, err = repo.Lesson(ctx, "sleep-1")
	require.NoError(t, err)
	assert.Equal(t, "Sueño Reparador", lesson.LessonName)
}

func TestLessonsByTypeFoldsCase(t *testing.T) {
	repo := catalog.NewLessonRepository(kv.NewMemoryStore(), nil)
	ctx := context.Background()
	require.NoError(t, repo.SeedDemoLessons(ctx))

	byType, err := repo.LessonsByType(ctx, "SUEÑO")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "sleep-1", byType[0].LessonID)

	byType, err = repo.LessonsByType(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, byType)
}

func TestLessonRepositoryCorruptValue(t *testing.T) {
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), catalog.KeyLessons, "{"))
	repo := catalog.NewLessonRepository(store, nil)

	_, err := repo.Lessons(context.Background())
	assert.ErrorIs(t, err, shared.ErrStorage)
}
