package diary

import "github.com/shopspring/decimal"

// SaveInput is the save_job payload. ID zero creates a new entry.
type SaveInput struct {
	ID              int64            `json:"id"`
	Kind            Kind             `json:"kind" validate:"omitempty,oneof=job quote"`
	CustomerID      *int64           `json:"customer_id,omitempty"`
	AssignedStaffID *int64           `json:"assigned_staff_id,omitempty"`
	JobDate         string           `json:"job_date" validate:"required"`
	FittingDate     *string          `json:"fitting_date,omitempty"`
	FittingTime     string           `json:"fitting_time" validate:"max=32"`
	BillingAddress  string           `json:"billing_address" validate:"max=500"`
	FittingAddress  *string          `json:"fitting_address,omitempty" validate:"omitempty,max=500"`
	Lines           []LineInput      `json:"lines" validate:"required,min=1,dive"`
	Accessories     []AccessoryInput `json:"accessories" validate:"dive"`
	FittingCost     decimal.Decimal  `json:"fitting_cost"`
	DiscountType    string           `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue   decimal.Decimal  `json:"discount_value"`
	Status          string           `json:"status" validate:"max=64"`
	Notes           string           `json:"notes" validate:"max=5000"`
}

// LineInput is one product line of SaveInput.
type LineInput struct {
	Description string          `json:"description" validate:"required,max=255"`
	Size        string          `json:"size" validate:"max=64"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// AccessoryInput is one accessory of SaveInput.
type AccessoryInput struct {
	Name      string          `json:"name" validate:"required,max=255"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
