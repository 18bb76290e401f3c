package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jobdiary/jobdiary/internal/shared"
)

var hundred = decimal.NewFromInt(100)

// Service loads and saves the settings document.
type Service struct {
	repo     Repository
	cache    *Cache
	logger   *slog.Logger
	validate *validator.Validate
	group    singleflight.Group
}

// NewService builds a Service. cache and logger may be nil.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, validate: shared.NewValidator()}
}

// Load returns the current settings: stored sections decoded over Defaults.
// Concurrent cache misses share one database read.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	if raw, ok, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn("settings cache get", slog.Any("error", err))
	} else if ok {
		var cached Settings
		decodeErr := json.Unmarshal(raw, &cached)
		if decodeErr == nil {
			return cached, nil
		}
		s.logger.Warn("settings cache decode", slog.Any("error", decodeErr))
	}

	v, err, _ := s.group.Do("load", func() (any, error) {
		return s.loadFromStore(ctx)
	})
	if err != nil {
		return Settings{}, err
	}
	return v.(Settings), nil
}

func (s *Service) loadFromStore(ctx context.Context) (Settings, error) {
	sections, err := s.repo.LoadSections(ctx)
	if err != nil {
		return Settings{}, err
	}
	cfg, err := decodeSections(sections)
	if err != nil {
		return Settings{}, err
	}
	if err := s.Validate(cfg); err != nil {
		return Settings{}, fmt.Errorf("settings: stored configuration invalid: %w", err)
	}
	if raw, err := json.Marshal(cfg); err == nil {
		if err := s.cache.Set(ctx, raw); err != nil {
			s.logger.Warn("settings cache set", slog.Any("error", err))
		}
	}
	return cfg, nil
}

// Save validates and persists every section, then drops the cache.
func (s *Service) Save(ctx context.Context, cfg Settings) error {
	if err := s.Validate(cfg); err != nil {
		return err
	}
	sections, err := encodeSections(cfg)
	if err != nil {
		return err
	}
	if err := s.repo.SaveSections(ctx, sections); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("settings cache invalidate", slog.Any("error", err))
	}
	return nil
}

// Update loads the settings, applies fn and saves the result.
func (s *Service) Update(ctx context.Context, fn func(*Settings) error) (Settings, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := fn(&cfg); err != nil {
		return Settings{}, err
	}
	if err := s.Save(ctx, cfg); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// Validate checks struct tags plus the decimal ranges tags cannot express.
func (s *Service) Validate(cfg Settings) error {
	if err := shared.ValidateStruct(s.validate, cfg); err != nil {
		return err
	}
	if cfg.VAT.Rate.IsNegative() || cfg.VAT.Rate.GreaterThan(hundred) {
		return shared.Validation("vat.rate", "VAT rate must be between 0 and 100")
	}
	pct := cfg.Notifications.QuoteDiscount.Percent
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.Validation("notifications.quote_discount.percent", "quote discount must be between 0 and 100")
	}
	if cfg.SMS.CostPerMessage.IsNegative() {
		return shared.Validation("sms.cost_per_message", "SMS cost cannot be negative")
	}
	for _, key := range []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled} {
		if !cfg.HasStatus(key) {
			return shared.Validation("statuses", "default status %q cannot be removed", key)
		}
	}
	if err := uniqueKeys("statuses", cfg.Statuses); err != nil {
		return err
	}
	return uniqueKeys("payment_methods", cfg.PaymentMethods)
}

func uniqueKeys(field string, opts []Option) error {
	seen := make(map[string]struct{}, len(opts))
	for _, o := range opts {
		if _, dup := seen[o.Key]; dup {
			return shared.Validation(field, "duplicate key %q", o.Key)
		}
		seen[o.Key] = struct{}{}
	}
	return nil
}

func decodeSections(sections map[string][]byte) (Settings, error) {
	cfg := Defaults()
	if len(sections) == 0 {
		return cfg, nil
	}
	doc := make(map[string]json.RawMessage, len(sections))
	for k, v := range sections {
		doc[k] = v
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Settings{}, fmt.Errorf("settings: decode: %w", err)
	}
	return cfg, nil
}

func encodeSections(cfg Settings) (map[string][]byte, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}
