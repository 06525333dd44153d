package domain

import "errors"

// ErrConfig marks configuration errors: invalid windows, non-positive
// starting cash, unknown rule names. Always fatal, raised before any
// simulation starts. Check with errors.Is.
var ErrConfig = errors.New("invalid config")

// ErrData marks data errors: non-monotonic dates, non-positive prices, or a
// series too short for the requested computation. Fatal to the specific
// computation; the caller may retry with a trimmed series or shorter window.
var ErrData = errors.New("invalid data")
