package layerdocx

import "errors"

var (
	ErrConfiguration  = errors.New("layerdocx: invalid configuration")
	ErrSynthesis      = errors.New("layerdocx: synthesis failed")
	ErrInvalidHeader  = errors.New("layerdocx: invalid layer header")
	ErrInvalidPackage = errors.New("layerdocx: invalid package")
	ErrLimitExceeded  = errors.New("layerdocx: limit exceeded")
	ErrValidation     = errors.New("layerdocx: validation failed")
	ErrDigestMismatch = errors.New("layerdocx: digest mismatch")
)
