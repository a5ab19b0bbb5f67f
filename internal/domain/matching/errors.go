package matching

import "errors"

// ErrUnknownPolicy is returned when a policy name is not recognised.
var ErrUnknownPolicy = errors.New("matching: unknown eligibility policy")
