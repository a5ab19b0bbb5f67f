package service

import (
	"errors"
	"fmt"

	"github.com/okian/vmatch/internal/domain/model"
)

// Sentinel kinds returned by the service. Callers map them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrVolunteerNotFound    = fmt.Errorf("volunteer %w", ErrNotFound)
	ErrEventNotFound        = fmt.Errorf("event %w", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)
	ErrRegistrationNotFound = fmt.Errorf("registration %w", ErrNotFound)
	ErrHistoryNotFound      = fmt.Errorf("history entry %w", ErrNotFound)

	ErrAlreadyRegistered = errors.New("already registered")
	ErrIneligible        = errors.New("not eligible")
	ErrNoRecipients      = errors.New("no eligible volunteers")
	ErrStore             = errors.New("store unavailable")
)

// OutcomeErr returns the sentinel matching a rejected outcome, or nil when
// the registration was committed.
func OutcomeErr(o model.MatchOutcome) error {
	if o.Succeeded() {
		return nil
	}
	switch o.Reason {
	case model.ReasonInvalidRequest:
		return ErrValidation
	case model.ReasonVolunteerNotFound:
		return ErrVolunteerNotFound
	case model.ReasonEventNotFound:
		return ErrEventNotFound
	case model.ReasonNotEligible:
		return ErrIneligible
	case model.ReasonAlreadyRegistered:
		return ErrAlreadyRegistered
	default:
		return ErrStore
	}
}
