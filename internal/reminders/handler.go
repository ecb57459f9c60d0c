package reminders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/betterfly/betterfly/internal/platform/httpx"
)

// Handler exposes reminder endpoints.
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

// MountRoutes registers reminder routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reminders", func(r chi.Router) {
		r.Get("/daily", h.showDaily)
		r.Put("/daily", h.scheduleDaily)
		r.Delete("/daily", h.cancelDaily)
		r.Get("/email", h.showEmail)
		r.Put("/email", h.scheduleEmail)
		r.Delete("/email", h.cancelEmail)
		r.Post("/email/test", h.testEmail)
	})
}

type timeRequest struct {
	Hour   *int `json:"hour" validate:"required,min=0,max=23"`
	Minute *int `json:"minute" validate:"required,min=0,max=59"`
}

type emailRequest struct {
	timeRequest
	Email string `json:"email" validate:"required,email"`
}

type testEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type dailyResponse struct {
	Active bool `json:"active"`
	Hour   *int `json:"hour,omitempty"`
	Minute *int `json:"minute,omitempty"`
}

type emailResponse struct {
	Active bool   `json:"active"`
	Hour   *int   `json:"hour,omitempty"`
	Minute *int   `json:"minute,omitempty"`
	Email  string `json:"email,omitempty"`
}

func (h *Handler) showDaily(w http.ResponseWriter, r *http.Request) {
	t, ok, err := h.service.DailyTime(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := dailyResponse{Active: h.service.IsDailyActive(r.Context())}
	if ok {
		resp.Hour, resp.Minute = &t.Hour, &t.Minute
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) scheduleDaily(w http.ResponseWriter, r *http.Request) {
	var req timeRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.service.ScheduleDaily(r.Context(), *req.Hour, *req.Minute) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Reminder Unavailable", "the reminder could not be scheduled")
		return
	}
	httpx.JSON(w, http.StatusOK, dailyResponse{Active: true, Hour: req.Hour, Minute: req.Minute})
}

func (h *Handler) cancelDaily(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelDaily(r.Context()); err != nil {
		h.logger.Error("cancel daily reminder", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) showEmail(w http.ResponseWriter, r *http.Request) {
	cfg, ok, err := h.service.EmailConfig(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	resp := emailResponse{Active: h.service.IsEmailActive(r.Context())}
	if ok {
		resp.Hour, resp.Minute, resp.Email = &cfg.Hour, &cfg.Minute, cfg.Email
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) scheduleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.service.ScheduleEmail(r.Context(), *req.Hour, *req.Minute, req.Email) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Reminder Unavailable", "the email reminder could not be scheduled")
		return
	}
	httpx.JSON(w, http.StatusOK, emailResponse{Active: true, Hour: req.Hour, Minute: req.Minute, Email: req.Email})
}

func (h *Handler) cancelEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelEmail(r.Context()); err != nil {
		h.logger.Error("cancel email reminder", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) testEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !h.service.SendTestEmail(r.Context(), req.Email) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Email Unavailable", "the test email could not be queued")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
