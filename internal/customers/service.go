package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jobdiary/jobdiary/internal/shared"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: shared.NewValidator(), now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	customer := Customer{
		FirstName: req.FirstName,
		LastName:  strings.TrimSpace(req.LastName),
		Email:     trimmed(req.Email),
		Phone:     trimmed(req.Phone),
		Address1:  trimmed(req.Address1),
		Address2:  trimmed(req.Address2),
		City:      trimmed(req.City),
		Postcode:  trimmed(req.Postcode),
		Notes:     trimmed(req.Notes),
	}
	if req.SMSOptIn {
		at := s.now().UTC()
		customer.SMSOptInAt = &at
	}
	id, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Update edits a native customer. Shop customers are read-only.
func (s *Service) Update(ctx context.Context, id int64, req UpdateCustomerRequest) (*Customer, error) {
	if err := shared.ValidateStruct(s.validate, req); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.IsExternal() {
		return nil, shared.Validation("customer", "customer %s is managed by the online shop and cannot be edited here", existing.Ref())
	}

	updates := make(map[string]any)
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("email", req.Email)
	set("phone", req.Phone)
	set("address_line1", req.Address1)
	set("address_line2", req.Address2)
	set("city", req.City)
	set("postcode", req.Postcode)
	set("notes", req.Notes)
	if v, ok := updates["first_name"]; ok && v == "" {
		return nil, shared.Validation("first_name", "first_name is required")
	}
	if len(updates) == 0 {
		return existing, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Resolve looks a customer up by public reference ("42" or "ext_42").
func (s *Service) Resolve(ctx context.Context, ref string) (*Customer, error) {
	parsed, ok := ParseRef(ref)
	if !ok {
		return nil, shared.Validation("customer", "invalid customer reference %q", ref)
	}
	if parsed.ExternalID != "" {
		return s.repo.GetByExternalID(ctx, parsed.ExternalID)
	}
	return s.repo.Get(ctx, parsed.ID)
}

func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	return s.repo.List(ctx, req)
}

// OptInSMS records consent to receive SMS.
func (s *Service) OptInSMS(ctx context.Context, id int64) (*Customer, error) {
	return s.setSMSPreference(ctx, id, true)
}

// OptOutSMS records a withdrawal of SMS consent.
func (s *Service) OptOutSMS(ctx context.Context, id int64) (*Customer, error) {
	return s.setSMSPreference(ctx, id, false)
}

func (s *Service) setSMSPreference(ctx context.Context, id int64, optIn bool) (*Customer, error) {
	if err := s.repo.SetSMSPreference(ctx, id, optIn, s.now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
