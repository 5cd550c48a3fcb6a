package types

import "errors"

var (
	ErrInsufficientAssets = errors.New("insufficient assets")
	ErrInvalidComposition = errors.New("invalid composition input")
	ErrEncodingFailure    = errors.New("encoding failed")
	ErrProbeParse         = errors.New("probe output is not a duration")
	ErrTimeout            = errors.New("external process timed out")
)
