package payments

import (
	"context"
	"errors"
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

const idempotencyModule = "payments"

// JobChecker confirms a job exists.
type JobChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// SettingsSource supplies the current configuration.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// StaffDirectory resolves staff ids to display names.
type StaffDirectory interface {
	DisplayNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// EventSink is told about every recorded payment.
type EventSink interface {
	PaymentRecorded(ctx context.Context, p Payment) error
}

// KeyClaimer reserves idempotency keys.
type KeyClaimer interface {
	Claim(ctx context.Context, module, key string) error
	Release(ctx context.Context, module, key string) error
}

// Auditor records deletions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Deps groups the collaborators of Service. Staff, Events, Keys and Audit may be nil.
type Deps struct {
	Repo     Repository
	Jobs     JobChecker
	Settings SettingsSource
	Staff    StaffDirectory
	Events   EventSink
	Keys     KeyClaimer
	Audit    Auditor
	Logger   *slog.Logger
}

// Service records and lists payments.
type Service struct {
	repo     Repository
	jobs     JobChecker
	settings SettingsSource
	staff    StaffDirectory
	events   EventSink
	keys     KeyClaimer
	audit    Auditor
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     deps.Repo,
		jobs:     deps.Jobs,
		settings: deps.Settings,
		staff:    deps.Staff,
		events:   deps.Events,
		keys:     deps.Keys,
		audit:    deps.Audit,
		logger:   logger,
		validate: shared.NewValidator(),
		now:      time.Now,
	}
}

// SetEventSink attaches the sink notified after each recorded payment.
func (s *Service) SetEventSink(sink EventSink) {
	s.events = sink
}

// AddPayment validates and records a payment, then notifies the event sink.
// A sink failure is logged and never fails the add.
func (s *Service) AddPayment(ctx context.Context, in AddInput) (int64, error) {
	in.Method = strings.TrimSpace(in.Method)
	in.Type = strings.TrimSpace(in.Type)
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return 0, err
	}
	if !in.Amount.IsPositive() {
		return 0, shared.Validation("amount", "amount must be greater than zero")
	}
	if !money.Exact(in.Amount) {
		return 0, shared.Validation("amount", "amount cannot have more than %d decimal places", money.Places)
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !cfg.HasPaymentMethod(in.Method) {
		return 0, shared.Validation("method", "unknown payment method %q", in.Method)
	}
	ok, err := s.jobs.Exists(ctx, in.JobID)
	if err != nil {
		return 0, fmt.Errorf("payments: check job: %w", err)
	}
	if !ok {
		return 0, shared.Validation("job_id", "job %d does not exist", in.JobID)
	}

	if in.IdempotencyKey != "" && s.keys != nil {
		if err := s.keys.Claim(ctx, idempotencyModule, in.IdempotencyKey); err != nil {
			return 0, err
		}
	}

	p := Payment{
		JobID:      in.JobID,
		Amount:     in.Amount,
		Method:     in.Method,
		Type:       in.Type,
		Notes:      strings.TrimSpace(in.Notes),
		RecordedAt: s.now().UTC(),
	}
	if in.RecordedBy > 0 {
		by := in.RecordedBy
		p.RecordedBy = &by
	}
	id, err := s.repo.Insert(ctx, p)
	if err != nil {
		if in.IdempotencyKey != "" && s.keys != nil {
			if relErr := s.keys.Release(ctx, idempotencyModule, in.IdempotencyKey); relErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", relErr))
			}
		}
		return 0, err
	}
	p.ID = id
	s.logger.Info("payment recorded", slog.Int64("payment_id", id), slog.Int64("job_id", p.JobID), slog.String("amount", p.Amount.StringFixed(2)))

	if s.events != nil {
		if err := s.events.PaymentRecorded(ctx, p); err != nil {
			s.logger.Warn("payment event", slog.Int64("payment_id", id), slog.Any("error", err))
		}
	}
	return id, nil
}

// DeletePayment removes a payment unconditionally.
func (s *Service) DeletePayment(ctx context.Context, id, actorID int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("payment deleted", slog.Int64("payment_id", id), slog.Int64("job_id", p.JobID))
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "payment.delete",
			Entity:   "payment",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"job_id": p.JobID, "amount": p.Amount.StringFixed(2), "method": p.Method},
		})
		if err != nil {
			s.logger.Warn("audit payment delete", slog.Any("error", err))
		}
	}
	return nil
}

// Get returns one payment.
func (s *Service) Get(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.Get(ctx, id)
}

// TotalForJob sums the job's payments from the stored rows.
func (s *Service) TotalForJob(ctx context.Context, jobID int64) (decimal.Decimal, error) {
	return s.repo.SumForJob(ctx, jobID)
}

// CountPaymentsWithMethod counts payments recorded with method.
func (s *Service) CountPaymentsWithMethod(ctx context.Context, method string) (int, error) {
	return s.repo.CountByMethod(ctx, method)
}

// ListForJob returns the job's payments newest first, decorated for display.
func (s *Service) ListForJob(ctx context.Context, jobID int64) ([]View, error) {
	rows, err := s.repo.ListForJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	if s.staff != nil {
		var ids []int64
		for _, p := range rows {
			if p.RecordedBy != nil {
				ids = append(ids, *p.RecordedBy)
			}
		}
		if len(ids) > 0 {
			found, err := s.staff.DisplayNames(ctx, ids)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("resolve staff names", slog.Any("error", err))
			}
			if found != nil {
				names = found
			}
		}
	}

	f := cfg.Formatter()
	layout := cfg.General.DateFormat + " " + cfg.General.TimeFormat
	views := make([]View, 0, len(rows))
	for _, p := range rows {
		v := View{
			Payment:         p,
			MethodLabel:     cfg.PaymentMethodLabel(p.Method),
			FormattedAmount: f.Format(p.Amount),
			FormattedDate:   p.RecordedAt.Format(layout),
		}
		if p.RecordedBy != nil {
			v.RecordedByName = names[*p.RecordedBy]
		}
		if v.RecordedByName == "" {
			v.RecordedByName = "Unknown"
		}
		views = append(views, v)
	}
	return views, nil
}
