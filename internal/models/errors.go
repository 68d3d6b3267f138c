package models

import "errors"

// Error kinds shared by the calculator and the ledger. Callers match them
// with errors.Is; the wrapped message carries the specific reason.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
)
