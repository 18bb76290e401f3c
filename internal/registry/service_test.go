package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

type fakeStore struct {
	cfg settings.Settings
}

func (f *fakeStore) Load(context.Context) (settings.Settings, error) { return f.cfg, nil }

func (f *fakeStore) Update(_ context.Context, fn func(*settings.Settings) error) (settings.Settings, error) {
	next := f.cfg
	next.Statuses = append([]settings.Option(nil), f.cfg.Statuses...)
	next.PaymentMethods = append([]settings.Option(nil), f.cfg.PaymentMethods...)
	if err := fn(&next); err != nil {
		return settings.Settings{}, err
	}
	f.cfg = next
	return next, nil
}

type fakeUsage struct {
	statuses map[string]int
	methods  map[string]int
}

func (f fakeUsage) CountActiveJobsWithStatus(_ context.Context, key string) (int, error) {
	return f.statuses[key], nil
}

func (f fakeUsage) CountPaymentsWithMethod(_ context.Context, key string) (int, error) {
	return f.methods[key], nil
}

type recordingAuditor struct{ logs []shared.AuditLog }

func (r *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func newTestService(usage fakeUsage) (*Service, *fakeStore, *recordingAuditor) {
	store := &fakeStore{cfg: settings.Defaults()}
	audit := &recordingAuditor{}
	return NewService(store, usage, usage, audit, nil), store, audit
}

func TestAddStatusDerivesKeyAndLabel(t *testing.T) {
	svc, store, _ := newTestService(fakeUsage{})

	opt, err := svc.AddStatus(context.Background(), AddInput{Label: "  awaiting   parts "})
	require.NoError(t, err)
	require.Equal(t, "awaiting-parts", opt.Key)
	require.Equal(t, "Awaiting Parts", opt.Label)
	require.True(t, store.cfg.HasStatus("awaiting-parts"))

	opt, err = svc.AddStatus(context.Background(), AddInput{Label: "VIP fitting"})
	require.NoError(t, err)
	require.Equal(t, "vip-fitting", opt.Key)
	require.Equal(t, "VIP fitting", opt.Label)
}

func TestAddStatusRejectsDuplicatesAndBlankLabels(t *testing.T) {
	svc, _, _ := newTestService(fakeUsage{})

	_, err := svc.AddStatus(context.Background(), AddInput{Label: "Pending"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddStatus(context.Background(), AddInput{Label: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteDefaultStatusIsRefused(t *testing.T) {
	svc, store, _ := newTestService(fakeUsage{})

	err := svc.DeleteStatus(context.Background(), settings.StatusPending, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.True(t, store.cfg.HasStatus(settings.StatusPending))
}

func TestDeleteStatusInUseReportsCount(t *testing.T) {
	svc, store, _ := newTestService(fakeUsage{statuses: map[string]int{"awaiting-parts": 3}})
	_, err := svc.AddStatus(context.Background(), AddInput{Label: "Awaiting parts"})
	require.NoError(t, err)

	err = svc.DeleteStatus(context.Background(), "awaiting-parts", 1)
	var integrity *shared.IntegrityError
	require.True(t, errors.As(err, &integrity))
	require.Equal(t, 3, integrity.Count)
	require.True(t, store.cfg.HasStatus("awaiting-parts"))
}

func TestDeleteUnusedStatusRemovesAndAudits(t *testing.T) {
	svc, store, audit := newTestService(fakeUsage{})
	_, err := svc.AddStatus(context.Background(), AddInput{Label: "Awaiting parts"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteStatus(context.Background(), "awaiting-parts", 9))
	require.False(t, store.cfg.HasStatus("awaiting-parts"))
	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(9), audit.logs[0].ActorID)
	require.Equal(t, "awaiting-parts", audit.logs[0].EntityID)

	err = svc.DeleteStatus(context.Background(), "awaiting-parts", 9)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeletePaymentMethodChecksPayments(t *testing.T) {
	svc, store, _ := newTestService(fakeUsage{methods: map[string]int{"cash": 2}})

	err := svc.DeletePaymentMethod(context.Background(), "cash", 1)
	require.ErrorIs(t, err, shared.ErrIntegrity)
	require.True(t, store.cfg.HasPaymentMethod("cash"))

	require.NoError(t, svc.DeletePaymentMethod(context.Background(), "cheque", 1))
	require.False(t, store.cfg.HasPaymentMethod("cheque"))
}

func TestSlug(t *testing.T) {
	require.Equal(t, "on-hold", Slug("On Hold!"))
	require.Equal(t, "s-2024", Slug("2024"))
	require.Equal(t, "", Slug("!!!"))
}
