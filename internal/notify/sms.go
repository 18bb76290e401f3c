package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
)

var e164 = regexp.MustCompile(`^\+\d{2,15}$`)

// ValidPhone reports whether number is in E.164 form.
func ValidPhone(number string) bool {
	return e164.MatchString(number)
}

// Credentials authenticate against the SMS provider.
type Credentials struct {
	AccountSID string
	AuthToken  string
}

// SMSProvider delivers one text message and returns the provider message id.
type SMSProvider interface {
	Send(ctx context.Context, cred Credentials, from, to, body string) (string, error)
}

// TwilioProvider sends through the Twilio Messages API.
type TwilioProvider struct {
	httpClient *http.Client
}

// NewTwilioProvider builds a provider. A nil client gets one with timeout.
func NewTwilioProvider(httpClient *http.Client, timeout time.Duration) *TwilioProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &TwilioProvider{httpClient: httpClient}
}

// Send posts From, To and Body to the account's Messages resource.
func (p *TwilioProvider) Send(ctx context.Context, cred Credentials, from, to, body string) (string, error) {
	base := &client.Client{
		Credentials: client.NewCredentials(cred.AccountSID, cred.AuthToken),
		HTTPClient:  p.httpClient,
	}
	base.SetAccountSid(cred.AccountSID)
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cred.AccountSID,
		Password: cred.AuthToken,
		Client:   base,
	})

	params := &twilioapi.CreateMessageParams{}
	params.SetPathAccountSid(cred.AccountSID)
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := rest.Api.CreateMessage(params)
		if err != nil {
			done <- result{err: err}
			return
		}
		sid := ""
		if resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.sid, r.err
	}
}

// SMS delivery outcomes.
const (
	SMSSent   = "sent"
	SMSTest   = "test"
	SMSFailed = "failed"
)

// SMSResult describes one SMS attempt.
type SMSResult struct {
	Status      string
	ProviderRef string
	Cost        decimal.Decimal
}

// ErrSMSDisabled is returned when SMS sending is switched off.
var ErrSMSDisabled = errors.New("sms sending is disabled")

// SMSService applies the configured delivery mode before calling the provider.
type SMSService struct {
	provider SMSProvider
}

// NewSMSService constructs an SMSService.
func NewSMSService(provider SMSProvider) *SMSService {
	return &SMSService{provider: provider}
}

// Send validates the number, then fails immediately when SMS is disabled,
// succeeds without a provider call in test mode and otherwise calls the
// provider, charging the configured cost.
func (s *SMSService) Send(ctx context.Context, cfg settings.SMS, to, body string) (SMSResult, error) {
	if !ValidPhone(to) {
		return SMSResult{Status: SMSFailed}, shared.Validation("phone", "%q is not an international phone number such as +447911123456", to)
	}
	if !cfg.Enabled {
		return SMSResult{Status: SMSFailed}, ErrSMSDisabled
	}
	if cfg.TestMode {
		return SMSResult{Status: SMSTest, Cost: decimal.Zero}, nil
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return SMSResult{Status: SMSFailed}, errors.New("sms provider credentials are incomplete")
	}
	sid, err := s.provider.Send(ctx, Credentials{AccountSID: cfg.AccountSID, AuthToken: cfg.AuthToken}, cfg.FromNumber, to, body)
	if err != nil {
		return SMSResult{Status: SMSFailed}, &shared.ExternalServiceError{Service: "sms", Err: fmt.Errorf("send sms: %w", err)}
	}
	return SMSResult{Status: SMSSent, ProviderRef: sid, Cost: cfg.CostPerMessage}, nil
}
