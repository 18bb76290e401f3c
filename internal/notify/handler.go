package notify

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

var errNotDelivered = errors.New("not delivered on any channel")

// Handler exposes manual sends and the notification log.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler constructs a Handler.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// MountRoutes registers the job and payment notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/jobs/{id}/notifications", h.listForJob)
	r.Post("/jobs/{id}/reminders", h.sendReminder)
	r.Post("/payments/{id}/confirmation", h.sendConfirmation)
}

// MountTestRoutes registers the test send, which needs the elevated capability.
func (h *Handler) MountTestRoutes(r chi.Router) {
	r.Post("/notifications/test", h.sendTest)
}

type channelRequest struct {
	Channel string `json:"channel"`
}

type testRequest struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
}

func (h *Handler) listForJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.dispatcher.LogForJob(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	httpx.OK(w, map[string]any{"notifications": entries})
}

func (h *Handler) sendReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req channelRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
			return
		}
	}
	sent, err := h.dispatcher.SendAppointmentReminder(r.Context(), id, req.Channel)
	respondSend(w, sent, err)
}

func (h *Handler) sendConfirmation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req channelRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
			return
		}
	}
	sent, err := h.dispatcher.SendPaymentConfirmation(r.Context(), id, req.Channel)
	respondSend(w, sent, err)
}

func (h *Handler) sendTest(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	sent, err := h.dispatcher.SendTestNotification(r.Context(), req.Channel, req.Recipient)
	respondSend(w, sent, err)
}

func respondSend(w http.ResponseWriter, sent bool, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !sent {
		httpx.RespondError(w, &shared.ExternalServiceError{Service: "notification", Err: errNotDelivered})
		return
	}
	httpx.OK(w, map[string]any{"sent": true})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, shared.Validation("id", "invalid id"))
		return 0, false
	}
	return id, true
}
