package apperror

import "errors"

var (
	ErrMatchFinished   = errors.New("match is already finished")
	ErrMatchNotStarted = errors.New("match is not started")
	ErrInvalidColumn   = errors.New("invalid column index")
	ErrColumnFull      = errors.New("column is full")
	ErrSameSymbols     = errors.New("participants must use distinct symbols")
	ErrInvalidBoard    = errors.New("invalid board dimensions")
	ErrNotFound        = errors.New("not found")
)
