package templating

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobdiary/jobdiary/internal/customers"
	"github.com/jobdiary/jobdiary/internal/diary"
	"github.com/jobdiary/jobdiary/internal/money"
	"github.com/jobdiary/jobdiary/internal/settings"
)

func TestRenderSubstitutesBothBraceStyles(t *testing.T) {
	ctx := Context{"name": "Ada", "order_number": "JOB-00001"}
	assert.Equal(t, "Hi Ada, ref JOB-00001.", Render("Hi {name}, ref {{order_number}}.", ctx))
	assert.Equal(t, "Hi Ada", Render("Hi {{ name }}", ctx))
}

func TestRenderStripsUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "Hi ", Render("Hi {unknown}", Context{}))
	assert.Equal(t, "a  b", Render("a {{missing}} b", nil))
	assert.Equal(t, "Total: ", Render("Total: {}", nil))
}

func TestRenderIsSinglePass(t *testing.T) {
	ctx := Context{"a": "{b}", "b": "boom"}
	assert.Equal(t, "x {b} y", Render("x {a} y", ctx))
}

func TestRenderIdempotentWithoutBraces(t *testing.T) {
	ctx := Context{"customer_name": "Ada Lovelace", "total": "£280.80"}
	tmpl := "Dear {customer_name}, your total is {{total}}. {stray}"
	once := Render(tmpl, ctx)
	assert.Equal(t, once, Render(once, ctx))
}

func TestRenderKeepsLoneBraces(t *testing.T) {
	assert.Equal(t, "a { b", Render("a { b", nil))
	assert.Equal(t, "Ada}", Render("{{name}}}", Context{"name": "Ada"}))
	assert.Equal(t, "{Ada", Render("{{name}", Context{"name": "Ada"}))
}

func TestEngineLayersAndCurrentDate(t *testing.T) {
	e := NewEngine(Options{
		Company: Context{"company_name": "Acme Floors", "shared": "company"},
		Bank:    Context{"bank_name": "First Bank", "shared": "bank"},
		Now:     func() time.Time { return time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC) },
	})

	out := e.Render("{company_name}|{bank_name}|{shared}|{current_date}", nil)
	assert.Equal(t, "Acme Floors|First Bank|bank|03/02/2026", out)

	out = e.Render("{shared}|{current_date}", Context{"shared": "caller", CurrentDateKey: "today"})
	assert.Equal(t, "caller|today", out)
}

func TestDiscountFields(t *testing.T) {
	f := money.DefaultFormatter()

	got := DiscountFields(money.Discount{Type: money.DiscountPercentage, Value: decimal.NewFromInt(10)}, f)
	assert.Equal(t, "10%", got["discount_display"])
	assert.Equal(t, "10% discount", got["discount_type_label"])

	got = DiscountFields(money.Discount{Type: money.DiscountFixed, Value: decimal.NewFromInt(50)}, f)
	assert.Equal(t, "£50.00", got["discount_display"])
	assert.Equal(t, "£50.00 discount", got["discount_type_label"])

	got = DiscountFields(money.Discount{}, f)
	assert.Equal(t, "No discount", got["discount_display"])
	assert.Equal(t, "no discount", got["discount_type_label"])
}

func TestAssemblerJobContext(t *testing.T) {
	cfg := settings.Defaults()
	fitting := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	email := "ada@example.test"
	job := diary.Job{
		Kind:           diary.KindJob,
		OrderNumber:    "JOB-00001",
		JobDate:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		FittingDate:    &fitting,
		FittingTime:    "AM",
		BillingAddress: "1 High Street",
		Status:         settings.StatusPending,
		Lines:          []diary.ProductLine{{Description: "Carpet", Size: "4x5m", Quantity: 10, UnitPrice: decimal.NewFromInt(20)}},
		Accessories:    []diary.Accessory{{Name: "Gripper", Quantity: 2, UnitPrice: decimal.NewFromInt(5)}},
		FittingCost:    decimal.NewFromInt(50),
		Discount:       money.Discount{Type: money.DiscountPercentage, Value: decimal.NewFromInt(10)},
	}
	cust := &customers.Customer{ID: 4, FirstName: "Ada", LastName: "Lovelace", Email: &email}

	ctx := NewAssembler(cfg).Job(job, cust, decimal.RequireFromString("180.80"))
	require.Equal(t, "£280.80", ctx["total"])
	assert.Equal(t, "£100.00", ctx["balance"])
	assert.Equal(t, "Remaining balance: £100.00", ctx["balance_status"])
	assert.Equal(t, "10/05/2026", ctx["fitting_date"])
	assert.Equal(t, "1 High Street", ctx["fitting_address"])
	assert.Equal(t, "Ada Lovelace", ctx["customer_name"])
	assert.Equal(t, "Pending", ctx["status"])
	assert.Equal(t, "10% discount", ctx["discount_type_label"])
	assert.Equal(t, "10 x Carpet (4x5m) @ £20.00 = £200.00\n2 x Gripper @ £5.00 = £10.00", ctx["line_items"])

	paid := NewAssembler(cfg).Job(job, cust, decimal.RequireFromString("280.80"))
	assert.Equal(t, PaidInFull, paid["balance_status"])
}

func TestAssemblerQuoteOffer(t *testing.T) {
	ctx := NewAssembler(settings.Defaults()).QuoteOffer(decimal.RequireFromString("280.80"), decimal.NewFromInt(5))
	assert.Equal(t, "5%", ctx["offer_percent"])
	assert.Equal(t, "£266.76", ctx["offer_total"])
}
