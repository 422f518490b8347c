package services

import "errors"

// Dashboard service errors
var (
	// Selection errors
	ErrInvalidSelection = errors.New("invalid selection")
	ErrUnknownTab       = errors.New("unknown tab")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownGroup     = errors.New("unknown economic series group")
	ErrTooManySeries    = errors.New("too many economic series")

	// Result errors
	ErrChartNotFound    = errors.New("chart not found")
	ErrTableUnavailable = errors.New("table not available")
)
