package customers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{ref}", h.show)
	r.Put("/customers/{ref}", h.update)
	r.Post("/customers/{ref}/sms/opt-in", h.optIn)
	r.Post("/customers/{ref}/sms/opt-out", h.optOut)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	items, total, err := h.service.List(r.Context(), ListCustomersRequest{Search: q.Get("q"), Limit: limit, Offset: offset})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Customer{}
	}
	httpx.OK(w, map[string]any{"customers": items, "total": total})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	c, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, withRef(c))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, withRef(c))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	updated, err := h.service.Update(r.Context(), c.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, withRef(updated))
}

func (h *Handler) optIn(w http.ResponseWriter, r *http.Request) {
	h.smsPreference(w, r, h.service.OptInSMS)
}

func (h *Handler) optOut(w http.ResponseWriter, r *http.Request) {
	h.smsPreference(w, r, h.service.OptOutSMS)
}

func (h *Handler) smsPreference(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64) (*Customer, error)) {
	c, err := h.service.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := apply(r.Context(), c.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, withRef(updated))
}

type customerResponse struct {
	*Customer
	Ref           string `json:"ref"`
	ReadOnly      bool   `json:"read_only"`
	CanReceiveSMS bool   `json:"can_receive_sms"`
}

func withRef(c *Customer) customerResponse {
	return customerResponse{Customer: c, Ref: c.Ref(), ReadOnly: c.IsExternal(), CanReceiveSMS: c.CanReceiveSMS()}
}
