package customers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	customers map[int64]*Customer
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]*Customer)}
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, shared.NotFound("customer", id)
	}
	cp := *c
	return &cp, nil
}

func (m *memoryRepo) GetByExternalID(_ context.Context, externalID string) (*Customer, error) {
	for _, c := range m.customers {
		if c.ExternalID != nil && *c.ExternalID == externalID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, shared.NotFound("customer", ExternalRefPrefix+externalID)
}

func (m *memoryRepo) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := m.customers[id]
	return ok, nil
}

func (m *memoryRepo) List(_ context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	var out []Customer
	for _, c := range m.customers {
		if req.Search == "" || strings.Contains(strings.ToLower(c.FullName()), strings.ToLower(req.Search)) {
			out = append(out, *c)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(_ context.Context, c Customer) (int64, error) {
	m.nextID++
	c.ID = m.nextID
	m.customers[c.ID] = &c
	return c.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	c, ok := m.customers[id]
	if !ok {
		return shared.NotFound("customer", id)
	}
	for col, v := range updates {
		s := v.(string)
		switch col {
		case "first_name":
			c.FirstName = s
		case "last_name":
			c.LastName = s
		case "email":
			c.Email = &s
		case "phone":
			c.Phone = &s
		}
	}
	return nil
}

func (m *memoryRepo) SetSMSPreference(_ context.Context, id int64, optIn bool, at time.Time) error {
	c, ok := m.customers[id]
	if !ok {
		return shared.NotFound("customer", id)
	}
	if optIn {
		c.SMSOptInAt = &at
	} else {
		c.SMSOptOutAt = &at
	}
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateValidatesAndTrims(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateCustomerRequest{FirstName: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateCustomerRequest{FirstName: "Ada", Email: strPtr("nope")})
	require.ErrorIs(t, err, shared.ErrValidation)

	c, err := svc.Create(context.Background(), CreateCustomerRequest{FirstName: " Ada ", LastName: "Lovelace", Phone: strPtr(" +447911123456 "), Notes: strPtr("  ")})
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", c.FullName())
	require.Equal(t, "+447911123456", c.PhoneNumber())
	require.Nil(t, c.Notes)
	require.Equal(t, strconv.FormatInt(c.ID, 10), c.Ref())
}

func TestExternalCustomersAreReadOnly(t *testing.T) {
	repo := newMemoryRepo()
	id, _ := repo.Create(context.Background(), Customer{FirstName: "Shop", ExternalID: strPtr("981")})
	svc := NewService(repo)

	c, err := svc.Resolve(context.Background(), "ext_981")
	require.NoError(t, err)
	require.Equal(t, id, c.ID)
	require.Equal(t, "ext_981", c.Ref())

	_, err = svc.Update(context.Background(), id, UpdateCustomerRequest{FirstName: strPtr("Changed")})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestParseRef(t *testing.T) {
	ref, ok := ParseRef("42")
	require.True(t, ok)
	require.Equal(t, int64(42), ref.ID)

	ref, ok = ParseRef("ext_a1")
	require.True(t, ok)
	require.Equal(t, "a1", ref.ExternalID)

	for _, bad := range []string{"", "ext_", "-1", "abc"} {
		_, ok := ParseRef(bad)
		require.False(t, ok, bad)
	}
}

func TestSMSPreferenceFollowsLatestChoice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	c, err := svc.Create(context.Background(), CreateCustomerRequest{FirstName: "Ada", Phone: strPtr("+447911123456"), SMSOptIn: true})
	require.NoError(t, err)
	require.True(t, c.CanReceiveSMS())

	svc.now = func() time.Time { return base.Add(time.Hour) }
	c, err = svc.OptOutSMS(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, c.SMSOptedOut())
	require.False(t, c.CanReceiveSMS())

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	c, err = svc.OptInSMS(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, c.CanReceiveSMS())
}

func TestHandlerShowsCustomerByRef(t *testing.T) {
	repo := newMemoryRepo()
	_, _ = repo.Create(context.Background(), Customer{FirstName: "Shop", ExternalID: strPtr("7")})
	r := chi.NewRouter()
	NewHandler(NewService(repo)).MountRoutes(r)

	res := httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/customers/ext_7", nil))
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"ref":"ext_7"`)
	require.Contains(t, res.Body.String(), `"read_only":true`)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/customers/99", nil))
	require.Equal(t, http.StatusNotFound, res.Code)
}
