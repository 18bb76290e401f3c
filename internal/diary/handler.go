package diary

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// Handler exposes the diary over the AJAX surface.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers the job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs", h.list)
	r.Post("/jobs", h.save)
	r.Get("/jobs/{id}", h.show)
	r.Delete("/jobs/{id}", h.delete)
	r.Post("/jobs/{id}/cancel", h.cancel)
	r.Post("/jobs/{id}/convert", h.convert)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.PageFromQuery(q)
	views, pagination, err := h.service.List(r.Context(), ListFilter{
		Kind:    Kind(q.Get("kind")),
		Status:  q.Get("status"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, struct {
		Jobs []View `json:"jobs"`
		shared.Pagination
	}{views, pagination})
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var in SaveInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	view, err := h.service.Save(r.Context(), in)
	if err != nil {
		h.logger.Debug("save job rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	actor, _ := shared.CurrentStaffID(r.Context())
	if err := h.service.Delete(r.Context(), id, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"id": id})
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"id": id})
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	view, err := h.service.ConvertQuote(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, view)
}

func jobID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("id", "invalid job id"))
		return 0, false
	}
	return id, true
}
