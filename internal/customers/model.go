package customers

import (
	"strconv"
	"strings"
	"time"
)

// ExternalRefPrefix marks customers mirrored from the online shop.
const ExternalRefPrefix = "ext_"

type Customer struct {
	ID          int64      `json:"id"`
	ExternalID  *string    `json:"external_id,omitempty"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address1    *string    `json:"address_line1,omitempty"`
	Address2    *string    `json:"address_line2,omitempty"`
	City        *string    `json:"city,omitempty"`
	Postcode    *string    `json:"postcode,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	SMSOptInAt  *time.Time `json:"sms_opt_in_at,omitempty"`
	SMSOptOutAt *time.Time `json:"sms_opt_out_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Ref is the public reference: the numeric id, or ext_<id> for shop customers.
func (c Customer) Ref() string {
	if c.IsExternal() {
		return ExternalRefPrefix + *c.ExternalID
	}
	return strconv.FormatInt(c.ID, 10)
}

// IsExternal reports whether the record is mirrored and therefore read-only.
func (c Customer) IsExternal() bool {
	return c.ExternalID != nil && *c.ExternalID != ""
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// EmailAddress returns the trimmed email or "".
func (c Customer) EmailAddress() string {
	if c.Email == nil {
		return ""
	}
	return strings.TrimSpace(*c.Email)
}

// PhoneNumber returns the trimmed phone or "".
func (c Customer) PhoneNumber() string {
	if c.Phone == nil {
		return ""
	}
	return strings.TrimSpace(*c.Phone)
}

// SMSOptedOut reports whether the latest SMS preference is an opt-out.
func (c Customer) SMSOptedOut() bool {
	if c.SMSOptOutAt == nil {
		return false
	}
	return c.SMSOptInAt == nil || c.SMSOptOutAt.After(*c.SMSOptInAt)
}

// CanReceiveSMS reports whether an SMS may be sent to the customer.
func (c Customer) CanReceiveSMS() bool {
	return c.PhoneNumber() != "" && !c.SMSOptedOut()
}

// Address renders the postal address on one line.
func (c Customer) Address() string {
	var parts []string
	for _, p := range []*string{c.Address1, c.Address2, c.City, c.Postcode} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, ", ")
}

// ParsedRef is a customer reference split into its native or external form.
type ParsedRef struct {
	ID         int64
	ExternalID string
}

// ParseRef accepts "42" or "ext_42".
func ParseRef(ref string) (ParsedRef, bool) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, ExternalRefPrefix); ok {
		if rest == "" {
			return ParsedRef{}, false
		}
		return ParsedRef{ExternalID: rest}, true
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return ParsedRef{}, false
	}
	return ParsedRef{ID: id}, true
}
