package experiment

import "errors"

// Sentinel kinds for experiment errors.
var (
	ErrNotFound          = errors.New("test not found")
	ErrTrafficSplit      = errors.New("variant traffic percentages must sum to 100")
	ErrControlCount      = errors.New("exactly one variant must be marked as control")
	ErrInvalidTransition = errors.New("invalid test status transition")
	ErrNoVariants        = errors.New("test needs at least one variant")
	ErrDuplicateVariant  = errors.New("variant ids must be unique")
)
