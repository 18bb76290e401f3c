// Package settings holds the typed business configuration edited by staff:
// formats, currency, VAT, registries, notification toggles, templates and
// provider credentials.
package settings

import (
	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/money"
)

// Option is a registry entry mapping a machine key to a display label.
type Option struct {
	Key   string `json:"key" validate:"required,max=64"`
	Label string `json:"label" validate:"required,max=128"`
}

// Default status keys.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Settings is the full configuration document. Every section is stored as its
// own row keyed by the json tag.
type Settings struct {
	General        General       `json:"general"`
	Currency       Currency      `json:"currency"`
	VAT            VAT           `json:"vat"`
	Statuses       []Option      `json:"statuses" validate:"min=4,dive"`
	PaymentMethods []Option      `json:"payment_methods" validate:"dive"`
	Notifications  Notifications `json:"notifications"`
	SMS            SMS           `json:"sms"`
	Company        Company       `json:"company"`
	Bank           Bank          `json:"bank"`
	Templates      Templates     `json:"templates"`
}

// General holds formats and numbering.
type General struct {
	DateFormat  string `json:"date_format" validate:"required"`
	TimeFormat  string `json:"time_format" validate:"required"`
	OrderPrefix string `json:"order_prefix" validate:"max=12"`
	OrderDigits int    `json:"order_digits" validate:"min=0,max=10"`
}

// Currency configures how amounts are shown.
type Currency struct {
	Symbol       string `json:"symbol" validate:"required,max=8"`
	Position     string `json:"position" validate:"oneof=before after before_space after_space"`
	DecimalSep   string `json:"decimal_separator" validate:"required,max=1"`
	ThousandsSep string `json:"thousands_separator" validate:"max=1"`
	Decimals     int32  `json:"decimals" validate:"min=0,max=4"`
}

// VAT configures tax on the discounted subtotal.
type VAT struct {
	Enabled bool            `json:"enabled"`
	Rate    decimal.Decimal `json:"rate"`
}

// Notifications toggles event driven sends.
type Notifications struct {
	EmailEnabled               bool          `json:"email_enabled"`
	ReminderEnabled            bool          `json:"reminder_enabled"`
	ReminderChannel            string        `json:"reminder_channel" validate:"oneof=email sms both"`
	PaymentConfirmationEnabled bool          `json:"payment_confirmation_enabled"`
	PaymentConfirmationChannel string        `json:"payment_confirmation_channel" validate:"oneof=email sms both"`
	QuoteDiscount              QuoteDiscount `json:"quote_discount"`
}

// QuoteDiscount configures the one-off offer sent for aged quotes.
type QuoteDiscount struct {
	Enabled   bool            `json:"enabled"`
	Percent   decimal.Decimal `json:"percent"`
	AfterDays int             `json:"after_days" validate:"min=1,max=365"`
	Channel   string          `json:"channel" validate:"oneof=email sms both"`
}

// SMS holds provider credentials and the delivery mode.
type SMS struct {
	Enabled        bool            `json:"enabled"`
	TestMode       bool            `json:"test_mode"`
	AccountSID     string          `json:"account_sid" validate:"required_if=Enabled true TestMode false"`
	AuthToken      string          `json:"auth_token" validate:"required_if=Enabled true TestMode false"`
	FromNumber     string          `json:"from_number" validate:"omitempty,e164"`
	CostPerMessage decimal.Decimal `json:"cost_per_message"`
}

// Company fields feed templates and invoices.
type Company struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	Website   string `json:"website"`
	VATNumber string `json:"vat_number"`
}

// Bank fields feed payment instructions in templates.
type Bank struct {
	Name          string `json:"name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
	SortCode      string `json:"sort_code"`
	IBAN          string `json:"iban"`
}

// Templates are the editable message bodies.
type Templates struct {
	ReminderEmailSubject   string `json:"reminder_email_subject" validate:"required"`
	ReminderEmailBody      string `json:"reminder_email_body" validate:"required"`
	ReminderSMS            string `json:"reminder_sms" validate:"required"`
	PaymentEmailSubject    string `json:"payment_email_subject" validate:"required"`
	PaymentEmailBody       string `json:"payment_email_body" validate:"required"`
	PaymentSMS             string `json:"payment_sms" validate:"required"`
	QuoteOfferEmailSubject string `json:"quote_offer_email_subject" validate:"required"`
	QuoteOfferEmailBody    string `json:"quote_offer_email_body" validate:"required"`
	QuoteOfferSMS          string `json:"quote_offer_sms" validate:"required"`
	InvoiceHTML            string `json:"invoice_html"`
}

// DefaultStatuses are the protected job statuses.
func DefaultStatuses() []Option {
	return []Option{
		{Key: StatusPending, Label: "Pending"},
		{Key: StatusInProgress, Label: "In Progress"},
		{Key: StatusCompleted, Label: "Completed"},
		{Key: StatusCancelled, Label: "Cancelled"},
	}
}

// IsDefaultStatus reports whether key is one of the protected statuses.
func IsDefaultStatus(key string) bool {
	switch key {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DefaultPaymentMethods seeds the payment-method registry.
func DefaultPaymentMethods() []Option {
	return []Option{
		{Key: "cash", Label: "Cash"},
		{Key: "card", Label: "Card"},
		{Key: "bank-transfer", Label: "Bank Transfer"},
		{Key: "cheque", Label: "Cheque"},
	}
}

// Defaults returns the configuration used before anything is saved.
func Defaults() Settings {
	return Settings{
		General: General{
			DateFormat:  "02/01/2006",
			TimeFormat:  "15:04",
			OrderPrefix: "JOB-",
			OrderDigits: 5,
		},
		Currency: Currency{
			Symbol:       "£",
			Position:     string(money.SymbolBefore),
			DecimalSep:   ".",
			ThousandsSep: ",",
			Decimals:     2,
		},
		VAT: VAT{Enabled: true, Rate: decimal.NewFromInt(20)},
		Statuses:       DefaultStatuses(),
		PaymentMethods: DefaultPaymentMethods(),
		Notifications: Notifications{
			EmailEnabled:               true,
			ReminderEnabled:            true,
			ReminderChannel:            "email",
			PaymentConfirmationEnabled: true,
			PaymentConfirmationChannel: "email",
			QuoteDiscount: QuoteDiscount{
				Enabled:   false,
				Percent:   decimal.NewFromInt(5),
				AfterDays: 14,
				Channel:   "email",
			},
		},
		SMS: SMS{Enabled: false, TestMode: true, CostPerMessage: decimal.RequireFromString("0.04")},
		Templates: Templates{
			ReminderEmailSubject: "Reminder: your fitting on {fitting_date}",
			ReminderEmailBody: "Dear {customer_name},\n\n" +
				"This is a reminder of your appointment with {company_name}.\n\n" +
				"Date: {fitting_date}\n" +
				"Time: {fitting_time}\n" +
				"Location: {fitting_address}\n" +
				"Reference: {order_number}\n\n" +
				"If you need to rearrange please call us on {company_phone}.\n\n" +
				"Kind regards,\n{company_name}",
			ReminderSMS:         "{company_name}: reminder of your fitting on {fitting_date} {fitting_time}. Ref {order_number}.",
			PaymentEmailSubject: "Payment received for {order_number}",
			PaymentEmailBody: "Dear {customer_name},\n\n" +
				"Thank you for your payment of {payment_amount} on {payment_date} by {payment_method}.\n\n" +
				"Job total: {total}\n" +
				"Paid to date: {amount_paid}\n" +
				"{balance_status}\n\n" +
				"Kind regards,\n{company_name}",
			PaymentSMS:             "{company_name}: payment of {payment_amount} received for {order_number}. {balance_status}",
			QuoteOfferEmailSubject: "A {offer_percent} discount on your quote {order_number}",
			QuoteOfferEmailBody: "Dear {customer_name},\n\n" +
				"Your quote {order_number} for {total} is still available, and we can offer you {offer_percent} off.\n\n" +
				"New total: {offer_total}\n\n" +
				"Reply to this email or call {company_phone} to book.\n\n" +
				"Kind regards,\n{company_name}",
			QuoteOfferSMS: "{company_name}: {offer_percent} off your quote {order_number}, now {offer_total}. Call {company_phone} to book.",
		},
	}
}

// Formatter returns the money formatter for the currency section.
func (s Settings) Formatter() money.Formatter {
	return money.Formatter{
		Symbol:       s.Currency.Symbol,
		Position:     money.SymbolPosition(s.Currency.Position),
		DecimalSep:   s.Currency.DecimalSep,
		ThousandsSep: s.Currency.ThousandsSep,
		Decimals:     s.Currency.Decimals,
	}
}

// VATConfig converts the VAT section for the calculator.
func (s Settings) VATConfig() money.VAT {
	return money.VAT{Enabled: s.VAT.Enabled, Rate: s.VAT.Rate}
}

// StatusLabel returns the label for key, or key itself when unknown.
func (s Settings) StatusLabel(key string) string {
	return labelFor(s.Statuses, key)
}

// PaymentMethodLabel returns the label for key, or key itself when unknown.
func (s Settings) PaymentMethodLabel(key string) string {
	return labelFor(s.PaymentMethods, key)
}

// HasStatus reports whether key is registered.
func (s Settings) HasStatus(key string) bool {
	return indexOf(s.Statuses, key) >= 0
}

// HasPaymentMethod reports whether key is registered.
func (s Settings) HasPaymentMethod(key string) bool {
	return indexOf(s.PaymentMethods, key) >= 0
}

// CompanyFields returns the company placeholders.
func (s Settings) CompanyFields() map[string]string {
	return map[string]string{
		"company_name":       s.Company.Name,
		"company_address":    s.Company.Address,
		"company_phone":      s.Company.Phone,
		"company_email":      s.Company.Email,
		"company_website":    s.Company.Website,
		"company_vat_number": s.Company.VATNumber,
	}
}

// BankFields returns the bank placeholders.
func (s Settings) BankFields() map[string]string {
	return map[string]string{
		"bank_name":           s.Bank.Name,
		"bank_account_name":   s.Bank.AccountName,
		"bank_account_number": s.Bank.AccountNumber,
		"bank_sort_code":      s.Bank.SortCode,
		"bank_iban":           s.Bank.IBAN,
	}
}

func labelFor(opts []Option, key string) string {
	if i := indexOf(opts, key); i >= 0 {
		return opts[i].Label
	}
	return key
}

func indexOf(opts []Option, key string) int {
	for i, o := range opts {
		if o.Key == key {
			return i
		}
	}
	return -1
}
