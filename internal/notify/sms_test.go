package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

type countingProvider struct {
	calls int
	err   error
}

func (c *countingProvider) Send(context.Context, Credentials, string, string, string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return "SM1", nil
}

func liveSMS() settings.SMS {
	return settings.SMS{
		Enabled:        true,
		AccountSID:     "AC123",
		AuthToken:      "secret",
		FromNumber:     "+441234567890",
		CostPerMessage: decimal.RequireFromString("0.04"),
	}
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+447911123456"))
	assert.False(t, ValidPhone("07911123456"))
	assert.False(t, ValidPhone("447911123456"))
	assert.False(t, ValidPhone("+4"))
	assert.False(t, ValidPhone("+44 7911 123456"))
}

func TestSMSServiceModes(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid number checked first", func(t *testing.T) {
		p := &countingProvider{}
		res, err := NewSMSService(p).Send(ctx, liveSMS(), "07911123456", "hi")
		require.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, SMSFailed, res.Status)
		assert.Zero(t, p.calls)
	})

	t.Run("disabled fails without provider call", func(t *testing.T) {
		p := &countingProvider{}
		cfg := liveSMS()
		cfg.Enabled = false
		res, err := NewSMSService(p).Send(ctx, cfg, "+447911123456", "hi")
		require.ErrorIs(t, err, ErrSMSDisabled)
		assert.Equal(t, SMSFailed, res.Status)
		assert.Zero(t, p.calls)
	})

	t.Run("test mode succeeds at zero cost", func(t *testing.T) {
		p := &countingProvider{}
		cfg := liveSMS()
		cfg.TestMode = true
		res, err := NewSMSService(p).Send(ctx, cfg, "+447911123456", "hi")
		require.NoError(t, err)
		assert.Equal(t, SMSTest, res.Status)
		assert.True(t, res.Cost.IsZero())
		assert.Zero(t, p.calls)
	})

	t.Run("live charges configured cost", func(t *testing.T) {
		p := &countingProvider{}
		res, err := NewSMSService(p).Send(ctx, liveSMS(), "+447911123456", "hi")
		require.NoError(t, err)
		assert.Equal(t, SMSSent, res.Status)
		assert.Equal(t, "SM1", res.ProviderRef)
		assert.True(t, res.Cost.Equal(decimal.RequireFromString("0.04")))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("provider error is external", func(t *testing.T) {
		p := &countingProvider{err: errors.New("21211 invalid To")}
		res, err := NewSMSService(p).Send(ctx, liveSMS(), "+447911123456", "hi")
		require.ErrorIs(t, err, shared.ErrExternalService)
		assert.Equal(t, SMSFailed, res.Status)
	})
}

const twilioMessagesURL = "https://api.twilio.com/2010-04-01/Accounts/AC123/Messages.json"

func TestTwilioProviderPostsMessage(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, twilioMessagesURL, func(req *http.Request) (*http.Response, error) {
		user, pass, ok := req.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, `{"code":20003,"message":"Authenticate","status":401}`), nil
		}
		if err := req.ParseForm(); err != nil {
			return nil, err
		}
		if req.PostForm.Get("To") != "+447911123456" || req.PostForm.Get("From") != "+441234567890" || req.PostForm.Get("Body") != "hello" {
			return httpmock.NewStringResponse(http.StatusBadRequest, `{"code":21211,"message":"bad form","status":400}`), nil
		}
		return httpmock.NewStringResponse(http.StatusCreated, `{"sid":"SM42","status":"queued"}`), nil
	})

	p := NewTwilioProvider(hc, 0)
	sid, err := p.Send(context.Background(), Credentials{AccountSID: "AC123", AuthToken: "secret"}, "+441234567890", "+447911123456", "hello")
	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTwilioProviderReportsProviderError(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder(http.MethodPost, twilioMessagesURL,
		httpmock.NewStringResponder(http.StatusBadRequest, `{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))

	_, err := NewTwilioProvider(hc, 0).Send(context.Background(), Credentials{AccountSID: "AC123", AuthToken: "secret"}, "+441234567890", "+15005550001", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid phone number")
}

func TestTwilioProviderHonoursContextTimeout(t *testing.T) {
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	httpmock.RegisterResponder(http.MethodPost, twilioMessagesURL, func(*http.Request) (*http.Response, error) {
		<-release
		return httpmock.NewStringResponse(http.StatusCreated, `{"sid":"SM1"}`), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewTwilioProvider(hc, 0).Send(ctx, Credentials{AccountSID: "AC123", AuthToken: "secret"}, "+441234567890", "+447911123456", "hello")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
