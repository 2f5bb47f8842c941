package service

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("contract is not in draft status")
	ErrInvalidInput    = errors.New("invalid input")
	ErrExternalService = errors.New("signing provider error")
	ErrStorage         = errors.New("document storage error")
)
