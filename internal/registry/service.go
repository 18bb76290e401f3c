// Package registry manages the job-status and payment-method registries.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

// SettingsStore reads and updates the settings document holding both registries.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, fn func(*settings.Settings) error) (settings.Settings, error)
}

// StatusUsage counts jobs using a status, ignoring completed and cancelled jobs.
type StatusUsage interface {
	CountActiveJobsWithStatus(ctx context.Context, status string) (int, error)
}

// MethodUsage counts payments recorded with a method.
type MethodUsage interface {
	CountPaymentsWithMethod(ctx context.Context, method string) (int, error)
}

// Auditor records registry removals.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service adds and removes registry entries while protecting defaults and
// entries still in use.
type Service struct {
	store   SettingsStore
	jobs    StatusUsage
	methods MethodUsage
	audit   Auditor
	logger  *slog.Logger
}

// NewService builds a Service. audit and logger may be nil.
func NewService(store SettingsStore, jobs StatusUsage, methods MethodUsage, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, jobs: jobs, methods: methods, audit: audit, logger: logger}
}

// AddInput describes a new entry. Key is derived from Label when empty.
type AddInput struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Statuses lists the job statuses.
func (s *Service) Statuses(ctx context.Context) ([]settings.Option, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.Statuses, nil
}

// PaymentMethods lists the payment methods.
func (s *Service) PaymentMethods(ctx context.Context) ([]settings.Option, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.PaymentMethods, nil
}

// AddStatus registers a new job status.
func (s *Service) AddStatus(ctx context.Context, in AddInput) (settings.Option, error) {
	return s.add(ctx, "status", in, func(cfg *settings.Settings) *[]settings.Option { return &cfg.Statuses })
}

// AddPaymentMethod registers a new payment method.
func (s *Service) AddPaymentMethod(ctx context.Context, in AddInput) (settings.Option, error) {
	return s.add(ctx, "payment method", in, func(cfg *settings.Settings) *[]settings.Option { return &cfg.PaymentMethods })
}

// DeleteStatus removes a custom status. Default statuses are always refused;
// other statuses are refused while an active job uses them.
func (s *Service) DeleteStatus(ctx context.Context, key string, actorID int64) error {
	key = strings.TrimSpace(key)
	if settings.IsDefaultStatus(key) {
		return shared.Validation("status", "the default status %q cannot be removed", key)
	}
	count, err := s.jobs.CountActiveJobsWithStatus(ctx, key)
	if err != nil {
		return fmt.Errorf("registry: count jobs with status: %w", err)
	}
	if count > 0 {
		return &shared.IntegrityError{Resource: "status", Key: key, Count: count}
	}
	return s.remove(ctx, "status", key, actorID, func(cfg *settings.Settings) *[]settings.Option { return &cfg.Statuses })
}

// DeletePaymentMethod removes a payment method no payment references.
func (s *Service) DeletePaymentMethod(ctx context.Context, key string, actorID int64) error {
	key = strings.TrimSpace(key)
	count, err := s.methods.CountPaymentsWithMethod(ctx, key)
	if err != nil {
		return fmt.Errorf("registry: count payments with method: %w", err)
	}
	if count > 0 {
		return &shared.IntegrityError{Resource: "payment method", Key: key, Count: count}
	}
	return s.remove(ctx, "payment method", key, actorID, func(cfg *settings.Settings) *[]settings.Option { return &cfg.PaymentMethods })
}

func (s *Service) add(ctx context.Context, resource string, in AddInput, list func(*settings.Settings) *[]settings.Option) (settings.Option, error) {
	opt, err := normalize(in)
	if err != nil {
		return settings.Option{}, err
	}
	_, err = s.store.Update(ctx, func(cfg *settings.Settings) error {
		entries := list(cfg)
		for _, existing := range *entries {
			if existing.Key == opt.Key {
				return shared.Validation("key", "%s %q already exists", resource, opt.Key)
			}
		}
		*entries = append(*entries, opt)
		return nil
	})
	if err != nil {
		return settings.Option{}, err
	}
	s.logger.Info("registry entry added", slog.String("resource", resource), slog.String("key", opt.Key))
	return opt, nil
}

func (s *Service) remove(ctx context.Context, resource, key string, actorID int64, list func(*settings.Settings) *[]settings.Option) error {
	_, err := s.store.Update(ctx, func(cfg *settings.Settings) error {
		entries := list(cfg)
		for i, existing := range *entries {
			if existing.Key == key {
				*entries = append((*entries)[:i:i], (*entries)[i+1:]...)
				return nil
			}
		}
		return shared.NotFound(resource, key)
	})
	if err != nil {
		return err
	}
	s.logger.Info("registry entry removed", slog.String("resource", resource), slog.String("key", key))
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "registry.remove",
			Entity:   resource,
			EntityID: key,
		}); err != nil {
			s.logger.Warn("audit registry removal", slog.Any("error", err))
		}
	}
	return nil
}

var (
	keyCaser   = cases.Lower(language.Und)
	labelCaser = cases.Title(language.English)
)

func normalize(in AddInput) (settings.Option, error) {
	label := strings.Join(strings.Fields(in.Label), " ")
	if label == "" {
		return settings.Option{}, shared.Validation("label", "label is required")
	}
	if len(label) > 128 {
		return settings.Option{}, shared.Validation("label", "label must be at most 128 characters")
	}
	key := strings.TrimSpace(in.Key)
	if key == "" {
		key = label
	}
	key = Slug(key)
	if key == "" {
		return settings.Option{}, shared.Validation("key", "key must contain letters or digits")
	}
	if keyCaser.String(label) == label {
		label = labelCaser.String(label)
	}
	return settings.Option{Key: key, Label: label}, nil
}

// Slug lower-cases s and joins runs of letters and digits with hyphens.
func Slug(s string) string {
	lowered := keyCaser.String(s)
	var b strings.Builder
	pendingDash := false
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	out := b.String()
	if len(out) > 64 {
		out = strings.TrimRight(out[:64], "-")
	}
	if _, err := strconv.Atoi(out); err == nil {
		out = "s-" + out
	}
	return out
}
