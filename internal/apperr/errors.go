// Package apperr holds the sentinel errors shared across chronogrid layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownPane     = errors.New("unknown pane")
	// ErrOutOfRange is returned when relative navigation hits either end of the calendar.
	ErrOutOfRange = errors.New("out of range")
)
