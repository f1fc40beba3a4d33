package config

import "errors"

var (
	ErrUnknownTransport = errors.New("unknown transport")
	ErrInvalidSymbol    = errors.New("symbol must be a single character")
)
