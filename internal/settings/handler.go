package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betterfly/betterfly/internal/platform/httpx"
)

// Handler exposes preference endpoints.
type Handler struct {
	logger *slog.Logger
	theme  *ThemeService
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, theme *ThemeService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, theme: theme}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/theme", h.showTheme)
	r.Put("/theme", h.updateTheme)
	r.Post("/theme/toggle", h.toggleTheme)
}

type themeBody struct {
	Mode string `json:"mode" validate:"required,oneof=light dark"`
}

func (h *Handler) showTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := h.theme.Theme(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, themeBody{Mode: string(mode)})
}

func (h *Handler) updateTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.theme.SetTheme(r.Context(), ThemeMode(req.Mode)); err != nil {
		h.logger.Error("set theme", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := h.theme.ToggleTheme(r.Context())
	if err != nil {
		h.logger.Error("toggle theme", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, themeBody{Mode: string(mode)})
}
