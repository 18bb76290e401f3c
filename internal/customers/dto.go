package customers

type CreateCustomerRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address1  *string `json:"address_line1,omitempty"`
	Address2  *string `json:"address_line2,omitempty"`
	City      *string `json:"city,omitempty"`
	Postcode  *string `json:"postcode,omitempty" validate:"omitempty,max=16"`
	Notes     *string `json:"notes,omitempty"`
	SMSOptIn  bool    `json:"sms_opt_in"`
}

type UpdateCustomerRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address1  *string `json:"address_line1,omitempty"`
	Address2  *string `json:"address_line2,omitempty"`
	City      *string `json:"city,omitempty"`
	Postcode  *string `json:"postcode,omitempty" validate:"omitempty,max=16"`
	Notes     *string `json:"notes,omitempty"`
}

type ListCustomersRequest struct {
	Search string
	Limit  int
	Offset int
}
