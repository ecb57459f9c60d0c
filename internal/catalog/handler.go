package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betterfly/betterfly/internal/platform/httpx"
)

// Handler serves the catalog read endpoints.
type Handler struct {
	logger  *slog.Logger
	static  *Static
	lessons *LessonRepository
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, static *Static, lessons *LessonRepository) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, static: static, lessons: lessons}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.listCategories)
	r.Get("/sessions", h.listSessions)
	r.Get("/sessions/{id}", h.showSession)
	r.Get("/lessons", h.listLessons)
	r.Get("/lessons/{id}", h.showLesson)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.static.Categories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.static.Sessions(r.Context())
	if err != nil {
		h.logger.Error("list sessions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sessions)
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.static.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request) {
	var (
		lessons []Lesson
		err     error
	)
	if lessonType := r.URL.Query().Get("type"); lessonType != "" {
		lessons, err = h.lessons.LessonsByType(r.Context(), lessonType)
	} else {
		lessons, err = h.lessons.Lessons(r.Context())
	}
	if err != nil {
		h.logger.Error("list lessons", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lessons)
}

func (h *Handler) showLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.lessons.Lesson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lesson)
}
