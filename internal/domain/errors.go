package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNetwork       = errors.New("network error")
	ErrDecode        = errors.New("decode error")
	ErrInvalidFilter = errors.New("invalid filter")
)
