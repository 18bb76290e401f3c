package settings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSettings(t *testing.T, svc *Service, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(svc).MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, "/settings", strings.NewReader(body)))
	return rec
}

func TestHandlerMasksAndKeepsAuthToken(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	_, err := svc.Update(context.Background(), func(cfg *Settings) error {
		cfg.SMS.AccountSID = "AC1"
		cfg.SMS.AuthToken = "real-token"
		return nil
	})
	require.NoError(t, err)

	rec := serveSettings(t, svc, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data Settings `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, secretMask, env.Data.SMS.AuthToken)

	env.Data.Company.Name = "Acme Floors"
	env.Data.Statuses = nil
	body, err := json.Marshal(env.Data)
	require.NoError(t, err)

	rec = serveSettings(t, svc, http.MethodPut, string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Acme Floors", stored.Company.Name)
	assert.Equal(t, "real-token", stored.SMS.AuthToken)
	assert.Len(t, stored.Statuses, 4, "registry entries are not replaced by PUT")
}

func TestHandlerRejectsInvalidDocument(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	cfg := Defaults()
	cfg.Currency.Position = "sideways"
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	rec := serveSettings(t, svc, http.MethodPut, string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serveSettings(t, svc, http.MethodPut, "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
