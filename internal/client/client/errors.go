package client

import "errors"

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrUnauthorized      = errors.New("invalid email or password")
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrAlreadyActive     = errors.New("account is already activated")
	ErrInvalidInput      = errors.New("invalid input")
)
