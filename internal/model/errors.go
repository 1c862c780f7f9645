package model

import "errors"

// Error kinds surfaced by the engine. Every rejected operation wraps one of
// these so callers can match with errors.Is and still see the conflicting
// parameter in the message.
var (
	ErrInvalidParameters      = errors.New("invalid parameters")
	ErrSwapPathNotFound       = errors.New("swap path not found")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthorizedAccount    = errors.New("access control: unauthorized account")
	ErrUpdateConditionsNotMet = errors.New("update conditions not met")
	ErrZeroOrNegativeAmount   = errors.New("zero or negative vault withdraw amount")
	ErrOverflow               = errors.New("arithmetic overflow")
	ErrStartAfterOutOfRange   = errors.New("start index out of range")
)
