package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// secretMask replaces the SMS auth token in responses. Sending it back
// unchanged keeps the stored token.
const secretMask = "********"

// Handler exposes the settings document.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers GET and PUT /settings.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.get)
	r.Put("/settings", h.put)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Load(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, masked(cfg))
}

// put replaces the document. Statuses and payment methods belong to the
// registry endpoints and are carried over from the stored copy.
func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	var incoming Settings
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		httpx.RespondError(w, shared.Validation("body", "request body must be valid JSON"))
		return
	}
	saved, err := h.service.Update(r.Context(), func(cfg *Settings) error {
		incoming.Statuses = cfg.Statuses
		incoming.PaymentMethods = cfg.PaymentMethods
		if incoming.SMS.AuthToken == "" || incoming.SMS.AuthToken == secretMask {
			incoming.SMS.AuthToken = cfg.SMS.AuthToken
		}
		*cfg = incoming
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, masked(saved))
}

func masked(cfg Settings) Settings {
	if cfg.SMS.AuthToken != "" {
		cfg.SMS.AuthToken = secretMask
	}
	return cfg
}
