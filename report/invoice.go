package report

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/settings"
	"github.com/jobdiary/jobdiary/internal/shared"
	"github.com/jobdiary/jobdiary/internal/templating"
)

// DefaultInvoiceHTML is used when no invoice template is configured. Styles
// are inline because braces are placeholder delimiters.
const DefaultInvoiceHTML = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{document_title} {order_number}</title></head>
<body style="font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222;">
<table style="width: 100%;"><tr>
<td><h1 style="margin: 0;">{company_name}</h1><div>{company_address}</div><div>{company_phone} {company_email}</div><div>{company_website}</div></td>
<td style="text-align: right;"><h2 style="margin: 0;">{document_title}</h2><div>{order_number}</div><div>Date: {job_date}</div><div>VAT no: {company_vat_number}</div></td>
</tr></table>
<p><strong>{customer_name}</strong><br>{billing_address}</p>
<p>Fitting: {fitting_date} {fitting_time} at {fitting_address}</p>
<table style="width: 100%; border-collapse: collapse;">
<tr><th style="text-align: left;">Item</th><th style="text-align: right;">Qty</th><th style="text-align: right;">Unit</th><th style="text-align: right;">Total</th></tr>
{line_rows}
</table>
<table style="width: 40%; margin-left: 60%; margin-top: 16px;">
<tr><td>Products</td><td style="text-align: right;">{lines_total}</td></tr>
<tr><td>Accessories</td><td style="text-align: right;">{accessories_total}</td></tr>
<tr><td>Fitting</td><td style="text-align: right;">{fitting_cost}</td></tr>
<tr><td>Discount ({discount_display})</td><td style="text-align: right;">-{discount_amount}</td></tr>
<tr><td>VAT {vat_rate}</td><td style="text-align: right;">{vat_amount}</td></tr>
<tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>{total}</strong></td></tr>
<tr><td>Paid</td><td style="text-align: right;">{amount_paid}</td></tr>
<tr><td><strong>{balance_status}</strong></td><td></td></tr>
</table>
<p>Payment by bank transfer to {bank_account_name}, sort code {bank_sort_code}, account {bank_account_number}. Please quote {order_number}.</p>
</body></html>`

// SettingsSource supplies the current configuration.
type SettingsSource interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// JobSource loads jobs.
type JobSource interface {
	Job(ctx context.Context, id int64) (*diary.Job, error)
}

// CustomerSource loads customers.
type CustomerSource interface {
	Get(ctx context.Context, id int64) (*customers.Customer, error)
}

// PaymentTotals sums a job's payments.
type PaymentTotals interface {
	TotalForJob(ctx context.Context, jobID int64) (decimal.Decimal, error)
}

// Renderer converts HTML to PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Document is a rendered file.
type Document struct {
	Filename string
	Content  []byte
}

// Deps groups the collaborators of InvoiceService.
type Deps struct {
	Settings  SettingsSource
	Jobs      JobSource
	Customers CustomerSource
	Payments  PaymentTotals
	Renderer  Renderer
	Logger    *slog.Logger
}

// InvoiceService renders job invoices and quote documents.
type InvoiceService struct {
	settings  SettingsSource
	jobs      JobSource
	customers CustomerSource
	payments  PaymentTotals
	renderer  Renderer
	logger    *slog.Logger
	now       func() time.Time
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(deps Deps) *InvoiceService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{
		settings:  deps.Settings,
		jobs:      deps.Jobs,
		customers: deps.Customers,
		payments:  deps.Payments,
		renderer:  deps.Renderer,
		logger:    logger,
		now:       time.Now,
	}
}

// HTML renders the invoice template for a job. Every substituted value is
// HTML escaped.
func (s *InvoiceService) HTML(ctx context.Context, jobID int64) (string, *diary.Job, error) {
	cfg, err := s.settings.Load(ctx)
	if err != nil {
		return "", nil, err
	}
	job, err := s.jobs.Job(ctx, jobID)
	if err != nil {
		return "", nil, err
	}
	var cust *customers.Customer
	if job.CustomerID != nil {
		cust, err = s.customers.Get(ctx, *job.CustomerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return "", nil, err
		}
	}
	paid, err := s.payments.TotalForJob(ctx, jobID)
	if err != nil {
		return "", nil, err
	}

	fields := templating.NewAssembler(cfg).Job(*job, cust, paid)
	fields["document_title"] = "Invoice"
	if job.IsQuote() {
		fields["document_title"] = "Quote"
	}
	merged := templating.EngineFor(cfg, s.now).Context(fields)
	escaped := make(templating.Context, len(merged)+1)
	for k, v := range merged {
		escaped[k] = html.EscapeString(v)
	}
	escaped["line_rows"] = lineRows(*job, cfg)

	tmpl := cfg.Templates.InvoiceHTML
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultInvoiceHTML
	}
	return templating.Render(tmpl, escaped), job, nil
}

// PDF renders the invoice and converts it through the Renderer.
func (s *InvoiceService) PDF(ctx context.Context, jobID int64) (Document, error) {
	doc, job, err := s.HTML(ctx, jobID)
	if err != nil {
		return Document{}, err
	}
	pdf, err := s.renderer.RenderHTML(ctx, doc)
	if err != nil {
		s.logger.Error("render invoice", slog.Int64("job_id", jobID), slog.Any("error", err))
		return Document{}, err
	}
	return Document{Filename: Filename(job), Content: pdf}, nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename is the download name for a job's document.
func Filename(job *diary.Job) string {
	name := unsafeFilename.ReplaceAllString(job.OrderNumber, "")
	if name == "" {
		name = "job-" + strconv.FormatInt(job.ID, 10)
	}
	return name + ".pdf"
}

func lineRows(job diary.Job, cfg settings.Settings) string {
	f := cfg.Formatter()
	var b strings.Builder
	row := func(desc string, qty int, unit, total decimal.Decimal) {
		b.WriteString(`<tr><td>` + html.EscapeString(desc) + `</td>`)
		b.WriteString(`<td style="text-align: right;">` + strconv.Itoa(qty) + `</td>`)
		b.WriteString(`<td style="text-align: right;">` + html.EscapeString(f.Format(unit)) + `</td>`)
		b.WriteString(`<td style="text-align: right;">` + html.EscapeString(f.Format(total)) + "</td></tr>\n")
	}
	for _, l := range job.Lines {
		desc := l.Description
		if l.Size != "" {
			desc += " (" + l.Size + ")"
		}
		row(desc, l.Quantity, l.UnitPrice, l.Total())
	}
	for _, a := range job.Accessories {
		row(a.Name, a.Quantity, a.UnitPrice, a.Total())
	}
	return b.String()
}
