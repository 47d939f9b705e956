// Package validation holds the request shape rules shared by the HTTP and
// gRPC transports. The activation core assumes its input passed them.
package validation

import (
	"errors"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// maxPasswordBytes is where bcrypt stops reading.
const maxPasswordBytes = 72

var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("password must be at least 8 characters and contain letters and digits")
	ErrMalformedCode   = errors.New("activation code must be 4 digits")
)

// New returns a validator with the "password" tag registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	return v
}

// ValidPassword requires MinPasswordLength to 72 bytes with at least one
// letter and one digit.
func ValidPassword(p string) bool {
	if len(p) < MinPasswordLength || len(p) > maxPasswordBytes {
		return false
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

// Checker validates loose request fields.
type Checker struct {
	v *validator.Validate
}

func NewChecker() *Checker {
	return &Checker{v: New()}
}

// Registration checks a new account's email and password policy.
func (c *Checker) Registration(email, password string) error {
	if err := c.email(email); err != nil {
		return err
	}
	if err := c.v.Var(password, "required,password"); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Credentials checks an email and a presented password. The password
// policy is not applied: a wrong password is an authentication failure.
func (c *Checker) Credentials(email, password string) error {
	if err := c.email(email); err != nil {
		return err
	}
	if err := c.v.Var(password, "required,max=72"); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

// Activation checks credentials plus the code shape.
func (c *Checker) Activation(email, password, code string) error {
	if err := c.Credentials(email, password); err != nil {
		return err
	}
	if err := c.v.Var(code, "required,len=4,number"); err != nil {
		return ErrMalformedCode
	}
	return nil
}

func (c *Checker) email(email string) error {
	if err := c.v.Var(email, "required,email,max=254"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}
