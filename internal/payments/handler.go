package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// IdempotencyHeader carries the client generated submit key.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes the ledger.
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

// MountRoutes registers the payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs/{id}/payments", h.list)
	r.Post("/jobs/{id}/payments", h.add)
	r.Delete("/payments/{id}", h.delete)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(w, r, "job")
	if !ok {
		return
	}
	var in AddInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	in.JobID = jobID
	in.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if staffID, ok := shared.CurrentStaffID(r.Context()); ok {
		in.RecordedBy = staffID
	}
	id, err := h.service.AddPayment(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	paid, err := h.service.TotalForJob(r.Context(), jobID)
	if err != nil {
		h.logger.Warn("sum payments after add", slog.Any("error", err))
	}
	httpx.OK(w, map[string]any{"payment_id": id, "job_id": jobID, "amount_paid": paid})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(w, r, "job")
	if !ok {
		return
	}
	views, err := h.service.ListForJob(r.Context(), jobID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	paid, err := h.service.TotalForJob(r.Context(), jobID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"payments": views, "amount_paid": paid})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "payment")
	if !ok {
		return
	}
	actor, _ := shared.CurrentStaffID(r.Context())
	if err := h.service.DeletePayment(r.Context(), id, actor); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"id": id})
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("id", "invalid %s id", what))
		return 0, false
	}
	return id, true
}
