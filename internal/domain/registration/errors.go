package registration

import "errors"

var (
	// ErrInvalidVolunteer is returned for a non-positive volunteer id.
	ErrInvalidVolunteer = errors.New("registration: invalid volunteer id")
	// ErrRefresh wraps failures loading registered ids from the source.
	ErrRefresh = errors.New("registration: refresh failed")
)
