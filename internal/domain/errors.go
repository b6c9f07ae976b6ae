package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateName       = errors.New("name already taken")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicateOperation  = errors.New("duplicate operation")
)
