package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginCredentials is the input of a login call.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize lower-cases and trims the email. The password is left as is.
func (c LoginCredentials) Normalize() LoginCredentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

// Validate checks the shape of the input before any network call.
func (c LoginCredentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// RegistrationDetails is the input of a register call.
type RegistrationDetails struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	AccountKind AccountKind `json:"account_kind"`
	DisplayName string      `json:"display_name"`
	Bio         string      `json:"bio,omitempty"`
}

// Normalize trims identifiers and canonicalises the email and account kind.
func (d RegistrationDetails) Normalize() RegistrationDetails {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.Bio = strings.TrimSpace(d.Bio)
	d.AccountKind = AccountKind(strings.ToLower(strings.TrimSpace(string(d.AccountKind))))
	return d
}

// Validate checks field-level rules that the identity service would also
// reject, so obvious mistakes never leave the process.
func (d RegistrationDetails) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Username, validation.Required, validation.Length(3, 32), is.Alphanumeric),
		validation.Field(&d.Email, validation.Required, is.Email),
		validation.Field(&d.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&d.AccountKind, validation.Required,
			validation.In(AccountIndividual, AccountGroup, AccountAdministrator)),
		validation.Field(&d.DisplayName, validation.Required, validation.Length(1, 64)),
		validation.Field(&d.Bio, validation.Length(0, 500)),
	)
}
