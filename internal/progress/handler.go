package progress

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betterfly/betterfly/internal/platform/httpx"
	"github.com/betterfly/betterfly/internal/shared"
	"github.com/betterfly/betterfly/internal/users"
)

// Handler exposes lesson completion and the progress summary.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes for the logged in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.showSummary)
	r.Post("/me/streak/check", h.checkStreak)
	r.Post("/sessions/{id}/complete", h.completeSession)
	r.Post("/progress/complete", h.completeLesson)
}

type completeRequest struct {
	DurationMinutes *float64 `json:"durationMinutes" validate:"required"`
	CategoryID      string   `json:"categoryId" validate:"max=64"`
}

type summaryResponse struct {
	User     users.PublicUser `json:"user"`
	Favorite *Favorite        `json:"favoriteCategory"`
}

type completionResponse struct {
	User              users.PublicUser `json:"user"`
	BetterfliesEarned int              `json:"betterfliesEarned"`
}

func newCompletionResponse(c Completion) completionResponse {
	return completionResponse{User: c.User.Public(), BetterfliesEarned: c.BetterfliesEarned}
}

func (h *Handler) showSummary(w http.ResponseWriter, r *http.Request) {
	email, ok := shared.UserEmailFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	summary, err := h.service.Summary(r.Context(), email)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summaryResponse{User: summary.User.Public(), Favorite: summary.Favorite})
}

func (h *Handler) checkStreak(w http.ResponseWriter, r *http.Request) {
	email, ok := shared.UserEmailFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	user, reset, err := h.service.CheckStreak(r.Context(), email)
	if err != nil {
		h.logger.Error("check streak", slog.String("email", email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"user": user.Public(), "reset": reset})
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	email, ok := shared.UserEmailFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	completion, err := h.service.CompleteSession(r.Context(), email, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Warn("complete session", slog.String("email", email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCompletionResponse(completion))
}

func (h *Handler) completeLesson(w http.ResponseWriter, r *http.Request) {
	email, ok := shared.UserEmailFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req completeRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	completion, err := h.service.Complete(r.Context(), email, *req.DurationMinutes, req.CategoryID)
	if err != nil {
		h.logger.Warn("complete lesson", slog.String("email", email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCompletionResponse(completion))
}
