package types

import (
	"errors"
	"fmt"
)

var (
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrSinkUnavailable    = errors.New("sink unavailable")
	ErrMalformedStructure = errors.New("malformed structure")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrValidationFailed   = errors.New("validation failed")
)

// ParseError reports a fatal problem on a specific input line.
type ParseError struct {
	Line int
	Text string
	Tag  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("line %d: %v (%s): %q", e.Line, e.Err, e.Tag, e.Text)
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
