package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessing = errors.New("already processing")
	ErrNoActiveChannel   = errors.New("no active webhook channel")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidKind       = errors.New("invalid work item kind")
)
