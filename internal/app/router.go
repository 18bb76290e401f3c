package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/notify"
	"github.com/jobdiary/jobdiary/internal/observability"
	"github.com/jobdiary/jobdiary/internal/payments"
	"github.com/jobdiary/jobdiary/internal/platform/httpx"
	"github.com/jobdiary/jobdiary/internal/rbac"
	"github.com/jobdiary/jobdiary/internal/registry"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
	"github.com/jobdiary/jobdiary/internal/staff"
	"github.com/jobdiary/jobdiary/jobs"
	"github.com/jobdiary/jobdiary/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	StaffHandler     *staff.Handler
	DiaryHandler     *diary.Handler
	PaymentsHandler  *payments.Handler
	CustomersHandler *customers.Handler
	RegistryHandler  *registry.Handler
	SettingsHandler  *settings.Handler
	NotifyHandler    *notify.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router. Everything under /api needs a signed
// in staff member holding the capability of the route group.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.StaffHandler.MountRoutes)

	rb := params.RBACMiddleware
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermJobsManage))
			params.DiaryHandler.MountRoutes(r)
			params.RegistryHandler.MountReadRoutes(r)
			if params.ReportHandler != nil {
				params.ReportHandler.MountRoutes(r)
			}
		})
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermPaymentsManage))
			params.PaymentsHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermCustomersManage))
			params.CustomersHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermNotificationsSend))
			params.NotifyHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermNotificationsTest))
			params.NotifyHandler.MountTestRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermSettingsManage))
			params.SettingsHandler.MountRoutes(r)
			params.RegistryHandler.MountWriteRoutes(r)
		})
	})

	if params.JobHandler != nil {
		r.Route("/tasks", func(r chi.Router) {
			r.Use(rb.RequireAny(shared.PermSettingsManage))
			params.JobHandler.MountRoutes(r)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Fail(w, http.StatusNotFound, "Not found.", nil)
	})
	return r
}
