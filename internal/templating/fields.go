package templating

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/settings"
)

// PaidInFull replaces the balance line once nothing is owed.
const PaidInFull = "PAID IN FULL"

// EngineFor builds an Engine from the company, bank and date settings.
func EngineFor(cfg settings.Settings, now func() time.Time) *Engine {
	return NewEngine(Options{
		Company:    cfg.CompanyFields(),
		Bank:       cfg.BankFields(),
		DateLayout: cfg.General.DateFormat,
		Now:        now,
	})
}

// DiscountFields derives discount_display ("10%" or "£50.00") and
// discount_type_label ("10% discount" or "£50.00 discount").
func DiscountFields(d money.Discount, f money.Formatter) Context {
	if !d.Active() {
		return Context{"discount_display": "No discount", "discount_type_label": "no discount"}
	}
	var display string
	if d.Type == money.DiscountPercentage {
		display = d.Value.Round(2).String() + "%"
	} else {
		display = f.Format(d.Value)
	}
	return Context{"discount_display": display, "discount_type_label": display + " discount"}
}

// BalanceStatus reads "PAID IN FULL" when nothing is owed and the remaining
// balance otherwise.
func BalanceStatus(balance decimal.Decimal, f money.Formatter) string {
	if !balance.IsPositive() {
		return PaidInFull
	}
	return "Remaining balance: " + f.Format(balance)
}

// Assembler gathers job, customer, pricing and payment data into a Context.
type Assembler struct {
	cfg settings.Settings
	fmt money.Formatter
}

// NewAssembler builds an Assembler for the given settings.
func NewAssembler(cfg settings.Settings) *Assembler {
	return &Assembler{cfg: cfg, fmt: cfg.Formatter()}
}

// Job returns the placeholders describing job, its customer and its money state.
// cust may be nil.
func (a *Assembler) Job(job diary.Job, cust *customers.Customer, paid decimal.Decimal) Context {
	pricing := job.Breakdown(a.cfg.VATConfig())
	balance := money.Balance(pricing.Total, paid)
	f := a.fmt

	ctx := Context{
		"order_number":      job.OrderNumber,
		"job_kind":          string(job.Kind),
		"job_date":          a.date(job.JobDate),
		"fitting_time":      job.FittingTime,
		"fitting_address":   job.Location(),
		"billing_address":   job.BillingAddress,
		"status":            a.cfg.StatusLabel(job.Status),
		"notes":             job.Notes,
		"lines_total":       f.Format(pricing.LinesTotal),
		"fitting_cost":      f.Format(pricing.FittingCost),
		"accessories_total": f.Format(pricing.AccessoriesTotal),
		"subtotal":          f.Format(pricing.Subtotal),
		"discount_amount":   f.Format(pricing.DiscountAmount),
		"net":               f.Format(pricing.Net),
		"vat_rate":          pricing.VATRate.String() + "%",
		"vat_amount":        f.Format(pricing.VATAmount),
		"total":             f.Format(pricing.Total),
		"amount_paid":       f.Format(paid),
		"balance":           f.Format(balance),
		"balance_status":    BalanceStatus(balance, f),
		"line_items":        a.lineItems(job),
	}
	if job.FittingDate != nil {
		ctx["fitting_date"] = a.date(*job.FittingDate)
	}
	for k, v := range DiscountFields(job.Discount, f) {
		ctx[k] = v
	}
	if cust != nil {
		ctx["customer_name"] = cust.FullName()
		ctx["customer_first_name"] = cust.FirstName
		ctx["customer_email"] = cust.EmailAddress()
		ctx["customer_phone"] = cust.PhoneNumber()
		ctx["customer_address"] = cust.Address()
		ctx["customer_ref"] = cust.Ref()
		if strings.TrimSpace(job.BillingAddress) == "" {
			ctx["billing_address"] = cust.Address()
		}
	}
	return ctx
}

// Payment returns the placeholders describing one payment.
func (a *Assembler) Payment(amount decimal.Decimal, method, paymentType string, at time.Time) Context {
	return Context{
		"payment_amount": a.fmt.Format(amount),
		"payment_date":   a.date(at),
		"payment_method": a.cfg.PaymentMethodLabel(method),
		"payment_type":   paymentType,
	}
}

// QuoteOffer returns the offer placeholders for a percentage off total.
func (a *Assembler) QuoteOffer(total, percent decimal.Decimal) Context {
	offered := money.Round(total.Sub(total.Mul(percent).Div(decimal.NewFromInt(100))))
	return Context{
		"offer_percent": percent.Round(2).String() + "%",
		"offer_total":   a.fmt.Format(offered),
	}
}

func (a *Assembler) date(t time.Time) string {
	return t.Format(a.cfg.General.DateFormat)
}

func (a *Assembler) lineItems(job diary.Job) string {
	var b strings.Builder
	for _, l := range job.Lines {
		b.WriteString(strconv.Itoa(l.Quantity))
		b.WriteString(" x ")
		b.WriteString(l.Description)
		if l.Size != "" {
			b.WriteString(" (" + l.Size + ")")
		}
		b.WriteString(" @ " + a.fmt.Format(l.UnitPrice) + " = " + a.fmt.Format(l.Total()) + "\n")
	}
	for _, acc := range job.Accessories {
		b.WriteString(strconv.Itoa(acc.Quantity) + " x " + acc.Name + " @ " + a.fmt.Format(acc.UnitPrice) + " = " + a.fmt.Format(acc.Total()) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
