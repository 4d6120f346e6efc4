package fusion

import "errors"

// Sentinel kinds for fusion errors.
var (
	ErrNoBackend       = errors.New("no extraction backend available")
	ErrInvalidConfig   = errors.New("invalid ensemble config")
	ErrUnknownOverride = errors.New("unknown config override key")
)
