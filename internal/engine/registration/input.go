package registration

import "strings"

// Input is one signup submission. Every field is required.
type Input struct {
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,notblank,maxbytes=72"`
	OrganizationName string `json:"organizationName" validate:"required"`
	TaxID            string `json:"taxId" validate:"required"`
	Whatsapp         string `json:"whatsapp" validate:"required"`
	Plan             string `json:"plan" validate:"required,plan"`
	PaymentMethod    string `json:"paymentMethod" validate:"required,payment_method"`
}

// Normalize trims surrounding whitespace from every field except the
// password, which is hashed as typed but must not be blank, and
// lower-cases the email. Organization names keep their case.
func (in Input) Normalize() Input {
	return Input{
		Name:             strings.TrimSpace(in.Name),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		Password:         in.Password,
		OrganizationName: strings.TrimSpace(in.OrganizationName),
		TaxID:            strings.TrimSpace(in.TaxID),
		Whatsapp:         strings.TrimSpace(in.Whatsapp),
		Plan:             strings.TrimSpace(in.Plan),
		PaymentMethod:    strings.TrimSpace(in.PaymentMethod),
	}
}
