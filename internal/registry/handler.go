package registry

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// Handler exposes the status and payment-method registries.
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

// MountReadRoutes registers the listings every staff member needs.
func (h *Handler) MountReadRoutes(r chi.Router) {
	r.Get("/statuses", h.listStatuses)
	r.Get("/payment-methods", h.listMethods)
}

// MountWriteRoutes registers the add and delete routes.
func (h *Handler) MountWriteRoutes(r chi.Router) {
	r.Post("/statuses", h.addStatus)
	r.Delete("/statuses/{key}", h.deleteStatus)
	r.Post("/payment-methods", h.addMethod)
	r.Delete("/payment-methods/{key}", h.deleteMethod)
}

func (h *Handler) listStatuses(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Statuses(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"statuses": items})
}

func (h *Handler) listMethods(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.PaymentMethods(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"payment_methods": items})
}

func (h *Handler) addStatus(w http.ResponseWriter, r *http.Request) {
	var in AddInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	opt, err := h.service.AddStatus(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, opt)
}

func (h *Handler) addMethod(w http.ResponseWriter, r *http.Request) {
	var in AddInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	opt, err := h.service.AddPaymentMethod(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, opt)
}

func (h *Handler) deleteStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	actor, _ := shared.CurrentStaffID(r.Context())
	if err := h.service.DeleteStatus(r.Context(), key, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"key": key})
}

func (h *Handler) deleteMethod(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	actor, _ := shared.CurrentStaffID(r.Context())
	if err := h.service.DeletePaymentMethod(r.Context(), key, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"key": key})
}
