package myerrors

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrEmailRegistered = errors.New("email already registered")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrUnknownEmail    = errors.New("unknown email")
	ErrWrongPassword   = errors.New("unknown password")
)
