package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betterfly/betterfly/internal/platform/httpx"
	"github.com/betterfly/betterfly/internal/shared"
)

// Handler exposes profile edits and the admin data tools over HTTP.
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

// MountRoutes registers routes for the logged in user. Callers gate them
// behind an authentication middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Patch("/me", h.updateProfile)
}

// MountAdminRoutes registers the admin data tools.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Delete("/users", h.clearUsers)
	r.Delete("/data", h.clearAll)
}

type profileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := shared.UserEmailFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var req profileRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.Username == nil && req.Password == nil {
		httpx.RespondError(w, shared.ValidationError("nothing to update"))
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), email, ProfileUpdate{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Warn("update profile", slog.String("email", email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user.Public())
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("admin stats", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) clearUsers(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.ClearUsers(r.Context())
	if err != nil {
		h.logger.Error("admin clear users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		h.logger.Error("admin clear all", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
