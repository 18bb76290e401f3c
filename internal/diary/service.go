package diary

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// SettingsSource supplies the current business configuration.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// PaymentTotals sums the payments recorded against a job.
type PaymentTotals interface {
	TotalForJob(ctx context.Context, jobID int64) (decimal.Decimal, error)
}

// ReminderScheduler queues an appointment reminder to run at a given time.
type ReminderScheduler interface {
	ScheduleAppointmentReminder(ctx context.Context, jobID int64, appointment, at time.Time, channel string) error
}

// CustomerLookup confirms a customer exists.
type CustomerLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Auditor records destructive actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Deps groups the collaborators of Service. Reminders, Customers and Audit may be nil.
type Deps struct {
	Repo      Repository
	Settings  SettingsSource
	Payments  PaymentTotals
	Reminders ReminderScheduler
	Customers CustomerLookup
	Audit     Auditor
	Logger    *slog.Logger
}

// Service implements the diary operations.
type Service struct {
	repo      Repository
	settings  SettingsSource
	payments  PaymentTotals
	reminders ReminderScheduler
	customers CustomerLookup
	audit     Auditor
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      deps.Repo,
		settings:  deps.Settings,
		payments:  deps.Payments,
		reminders: deps.Reminders,
		customers: deps.Customers,
		audit:     deps.Audit,
		logger:    logger,
		validate:  shared.NewValidator(),
		now:       time.Now,
	}
}

// Save creates the entry when ID is zero and updates it in place otherwise.
// A reminder is scheduled when the entry is a job with a future fitting.
func (s *Service) Save(ctx context.Context, in SaveInput) (*View, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return nil, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.buildJob(ctx, cfg, in)
	if err != nil {
		return nil, err
	}

	var previous *Job
	if in.ID == 0 {
		if job.Status == "" {
			job.Status = settings.StatusPending
		}
		if job.Status == settings.StatusCancelled {
			return nil, shared.Validation("status", "a new entry cannot be created as cancelled")
		}
		seq, err := s.repo.NextOrderSequence(ctx)
		if err != nil {
			return nil, err
		}
		job.OrderNumber = FormatOrderNumber(cfg.General.OrderPrefix, cfg.General.OrderDigits, seq)
		id, err := s.repo.Create(ctx, job)
		if err != nil {
			return nil, err
		}
		job.ID = id
		s.logger.Info("job created", slog.Int64("job_id", id), slog.String("order_number", job.OrderNumber), slog.String("kind", string(job.Kind)))
	} else {
		previous, err = s.repo.Get(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		job.ID = previous.ID
		job.Kind = previous.Kind
		job.OrderNumber = previous.OrderNumber
		if job.Status == "" {
			job.Status = previous.Status
		}
		if previous.IsCancelled() && job.Status != settings.StatusCancelled {
			return nil, shared.Validation("status", "a cancelled entry cannot be reopened")
		}
		if err := s.repo.Update(ctx, job); err != nil {
			return nil, err
		}
		s.logger.Info("job updated", slog.Int64("job_id", job.ID))
	}

	s.maybeScheduleReminder(ctx, cfg, job, previous)
	return s.Get(ctx, job.ID)
}

func (s *Service) buildJob(ctx context.Context, cfg settings.Settings, in SaveInput) (Job, error) {
	job := Job{
		Kind:            in.Kind,
		CustomerID:      in.CustomerID,
		AssignedStaffID: in.AssignedStaffID,
		FittingTime:     strings.TrimSpace(in.FittingTime),
		BillingAddress:  strings.TrimSpace(in.BillingAddress),
		FittingAddress:  trimmedPtr(in.FittingAddress),
		FittingCost:     in.FittingCost,
		Discount:        money.Discount{Type: money.DiscountType(in.DiscountType), Value: in.DiscountValue},
		Status:          strings.TrimSpace(in.Status),
		Notes:           strings.TrimSpace(in.Notes),
	}
	if job.Kind == "" {
		job.Kind = KindJob
	}

	jobDate, err := parseDate(in.JobDate)
	if err != nil {
		return Job{}, shared.Validation("job_date", "job_date must be a date in YYYY-MM-DD format")
	}
	job.JobDate = jobDate
	if in.FittingDate != nil && strings.TrimSpace(*in.FittingDate) != "" {
		fitting, err := parseDate(*in.FittingDate)
		if err != nil {
			return Job{}, shared.Validation("fitting_date", "fitting_date must be a date in YYYY-MM-DD format")
		}
		job.FittingDate = &fitting
	}

	if job.FittingCost.IsNegative() {
		return Job{}, shared.Validation("fitting_cost", "fitting_cost cannot be negative")
	}
	if job.Discount.Value.IsNegative() {
		return Job{}, shared.Validation("discount_value", "discount_value cannot be negative")
	}
	if job.Discount.Type == money.DiscountPercentage {
		if job.Discount.Value.GreaterThan(decimal.NewFromInt(100)) {
			return Job{}, shared.Validation("discount_value", "a percentage discount cannot exceed 100")
		}
		if !money.Exact(job.Discount.Value) {
			return Job{}, shared.Validation("discount_value", "a percentage discount allows at most %d decimal places", money.Places)
		}
	}
	if job.Status != "" && !cfg.HasStatus(job.Status) {
		return Job{}, shared.Validation("status", "unknown status %q", job.Status)
	}

	for i, l := range in.Lines {
		if l.UnitPrice.IsNegative() {
			return Job{}, shared.Validation("lines", "line %d: unit_price cannot be negative", i+1)
		}
		job.Lines = append(job.Lines, ProductLine{
			Description: strings.TrimSpace(l.Description),
			Size:        strings.TrimSpace(l.Size),
			Quantity:    l.Quantity,
			UnitPrice:   money.Round(l.UnitPrice),
		})
	}
	for i, a := range in.Accessories {
		if a.UnitPrice.IsNegative() {
			return Job{}, shared.Validation("accessories", "accessory %d: unit_price cannot be negative", i+1)
		}
		job.Accessories = append(job.Accessories, Accessory{
			Name:      strings.TrimSpace(a.Name),
			Quantity:  a.Quantity,
			UnitPrice: money.Round(a.UnitPrice),
		})
	}

	if job.CustomerID != nil && s.customers != nil {
		ok, err := s.customers.Exists(ctx, *job.CustomerID)
		if err != nil {
			return Job{}, err
		}
		if !ok {
			return Job{}, shared.Validation("customer_id", "customer %d does not exist", *job.CustomerID)
		}
	}
	return job, nil
}

func (s *Service) maybeScheduleReminder(ctx context.Context, cfg settings.Settings, job Job, previous *Job) {
	if s.reminders == nil || !cfg.Notifications.ReminderEnabled {
		return
	}
	if job.Kind != KindJob || job.Status == settings.StatusCancelled || job.Status == settings.StatusCompleted {
		return
	}
	appt, ok := job.Appointment()
	if !ok {
		return
	}
	if previous != nil && previous.Kind == KindJob {
		if prevAppt, ok := previous.Appointment(); ok && prevAppt.Equal(appt) {
			return
		}
	}
	at, ok := job.ReminderAt(s.now())
	if !ok {
		return
	}
	if err := s.reminders.ScheduleAppointmentReminder(ctx, job.ID, appt, at, cfg.Notifications.ReminderChannel); err != nil {
		s.logger.Warn("schedule reminder", slog.Int64("job_id", job.ID), slog.Any("error", err))
		return
	}
	s.logger.Info("reminder scheduled", slog.Int64("job_id", job.ID), slog.Time("at", at))
}

// Get returns the job with its pricing, amount paid and balance.
func (s *Service) Get(ctx context.Context, id int64) (*View, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cfg, *job)
}

// Job returns the stored job without computed fields.
func (s *Service) Job(ctx context.Context, id int64) (*Job, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) view(ctx context.Context, cfg settings.Settings, job Job) (*View, error) {
	paid := decimal.Zero
	if s.payments != nil {
		total, err := s.payments.TotalForJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		paid = total
	}
	pricing := job.Breakdown(cfg.VATConfig())
	balance := money.Balance(pricing.Total, paid)
	f := cfg.Formatter()
	return &View{
		Job:              job,
		StatusLabel:      cfg.StatusLabel(job.Status),
		Pricing:          pricing,
		AmountPaid:       paid,
		Balance:          balance,
		FormattedTotal:   f.Format(pricing.Total),
		FormattedPaid:    f.Format(paid),
		FormattedBalance: f.Format(balance),
	}, nil
}

// List returns active entries with their money state.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, shared.Pagination, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, shared.Pagination{}, shared.Validation("kind", "kind must be job or quote")
	}
	norm := shared.NewPagination(filter.Page, filter.PerPage, 0)
	filter.Page, filter.PerPage = norm.Page, norm.PerPage
	jobs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	views := make([]View, 0, len(jobs))
	for _, job := range jobs {
		v, err := s.view(ctx, cfg, job)
		if err != nil {
			return nil, shared.Pagination{}, err
		}
		views = append(views, *v)
	}
	return views, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Delete hard deletes the job with its images, payments, accessories and lines.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job deleted", slog.Int64("job_id", id), slog.Int64("actor_id", actorID))
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "job.delete",
			Entity:   "job",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"order_number": job.OrderNumber, "kind": string(job.Kind)},
		})
		if err != nil {
			s.logger.Warn("audit job delete", slog.Any("error", err))
		}
	}
	return nil
}

// Cancel soft deletes the job by moving it to the cancelled status.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, settings.StatusCancelled); err != nil {
		return err
	}
	s.logger.Info("job cancelled", slog.Int64("job_id", id))
	return nil
}

// ConvertQuote books a quote as a pending job.
func (s *Service) ConvertQuote(ctx context.Context, id int64) (*View, error) {
	job, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.IsQuote() {
		return nil, shared.Validation("kind", "entry %d is not a quote", id)
	}
	if job.IsCancelled() {
		return nil, shared.Validation("status", "a cancelled quote cannot be converted")
	}
	if err := s.repo.Convert(ctx, id, settings.StatusPending); err != nil {
		return nil, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	job.Kind = KindJob
	job.Status = settings.StatusPending
	s.maybeScheduleReminder(ctx, cfg, *job, nil)
	s.logger.Info("quote converted", slog.Int64("job_id", id))
	return s.view(ctx, cfg, *job)
}

// CountActiveJobsWithStatus counts entries using status that are neither
// completed nor cancelled.
func (s *Service) CountActiveJobsWithStatus(ctx context.Context, status string) (int, error) {
	return s.repo.CountActiveByStatus(ctx, status)
}

// Exists reports whether a job exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// ReminderDue reports whether a reminder queued for the given appointment
// should still be sent: the job is active and the appointment has not moved.
func (s *Service) ReminderDue(ctx context.Context, jobID int64, appointment time.Time) (bool, error) {
	job, err := s.repo.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if job.Kind != KindJob || job.IsCancelled() || job.Status == settings.StatusCompleted {
		return false, nil
	}
	current, ok := job.Appointment()
	if !ok || !current.Equal(appointment) {
		return false, nil
	}
	return current.After(s.now()), nil
}

// QuotesDueOffer lists quotes old enough for the discount offer.
func (s *Service) QuotesDueOffer(ctx context.Context, afterDays, limit int) ([]AgedQuote, error) {
	cutoff := s.now().Add(-time.Duration(afterDays) * 24 * time.Hour)
	return s.repo.AgedQuotes(ctx, cutoff, limit)
}

// MarkQuoteOffered records that the offer was attempted.
func (s *Service) MarkQuoteOffered(ctx context.Context, id int64) error {
	return s.repo.MarkQuoteOfferSent(ctx, id, s.now().UTC())
}

// FormatOrderNumber renders seq with prefix, zero padded to digits.
func FormatOrderNumber(prefix string, digits int, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, digits, seq)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
