package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/internal/shared"
)

type memoryRepo struct {
	sections map[string][]byte
	loads    int
	loadErr  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sections: make(map[string][]byte)}
}

func (r *memoryRepo) LoadSections(ctx context.Context) (map[string][]byte, error) {
	r.loads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make(map[string][]byte, len(r.sections))
	for k, v := range r.sections {
		out[k] = v
	}
	return out, nil
}

func (r *memoryRepo) SaveSections(ctx context.Context, sections map[string][]byte) error {
	for k, v := range sections {
		r.sections[k] = v
	}
	return nil
}

func TestLoadReturnsDefaultsWhenEmpty(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, Defaults().Currency, cfg.Currency)
	require.True(t, cfg.HasStatus(StatusCancelled))
	require.True(t, cfg.HasPaymentMethod("cash"))
	require.False(t, cfg.SMS.Enabled)
	require.Equal(t, "email", cfg.Notifications.ReminderChannel, "reminders must not target a disabled SMS channel")
}

func TestPartialSectionKeepsDefaults(t *testing.T) {
	repo := newMemoryRepo()
	repo.sections["currency"] = []byte(`{"symbol":"€","position":"after_space"}`)
	svc := NewService(repo, nil, nil)

	cfg, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "€", cfg.Currency.Symbol)
	require.Equal(t, "after_space", cfg.Currency.Position)
	require.Equal(t, ".", cfg.Currency.DecimalSep)
	require.Equal(t, "1,234.50 €", cfg.Formatter().Format(decimal.RequireFromString("1234.5")))
}

func TestLoadUsesRedisCacheUntilSave(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := newMemoryRepo()
	svc := NewService(repo, NewCache(client, time.Minute), nil)
	ctx := context.Background()

	_, err := svc.Load(ctx)
	require.NoError(t, err)
	_, err = svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.loads)
	require.True(t, mr.Exists(cacheKey))

	_, err = svc.Update(ctx, func(cfg *Settings) error {
		cfg.Company.Name = "Acme Flooring"
		return nil
	})
	require.NoError(t, err)
	require.False(t, mr.Exists(cacheKey))

	cfg, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Acme Flooring", cfg.Company.Name)
	require.Equal(t, 2, repo.loads)
}

func TestSaveRejectsInvalidConfiguration(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	cfg := Defaults()
	cfg.VAT.Rate = decimal.NewFromInt(120)
	require.ErrorIs(t, svc.Save(ctx, cfg), shared.ErrValidation)

	cfg = Defaults()
	cfg.Statuses = append(cfg.Statuses[:1], cfg.Statuses[2:]...)
	cfg.Statuses = append(cfg.Statuses, Option{Key: "on-hold", Label: "On Hold"})
	require.ErrorIs(t, svc.Save(ctx, cfg), shared.ErrValidation)

	cfg = Defaults()
	cfg.Currency.Position = "middle"
	err := svc.Save(ctx, cfg)
	var ve *shared.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Equal(t, "position", ve.Field)

	cfg = Defaults()
	cfg.SMS.Enabled = true
	cfg.SMS.TestMode = false
	require.ErrorIs(t, svc.Save(ctx, cfg), shared.ErrValidation)
	cfg.SMS.AccountSID = "AC123"
	cfg.SMS.AuthToken = "secret"
	require.NoError(t, svc.Save(ctx, cfg))
}

func TestLoadPropagatesRepositoryError(t *testing.T) {
	repo := newMemoryRepo()
	repo.loadErr = errors.New("db down")
	_, err := NewService(repo, nil, nil).Load(context.Background())
	require.EqualError(t, err, "db down")
}
