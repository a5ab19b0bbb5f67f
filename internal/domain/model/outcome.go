package model

// MatchState is a step of the match transaction for one (volunteer, event) pair.
type MatchState string

const (
	StateUnmatched  MatchState = "unmatched"
	StatePending    MatchState = "pending"
	StateRegistered MatchState = "registered"
	StateRejected   MatchState = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s MatchState) Terminal() bool {
	return s == StateRegistered || s == StateRejected
}

// Reason explains why a match transaction was rejected.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidRequest    Reason = "INVALID_REQUEST"
	ReasonNotEligible       Reason = "NOT_ELIGIBLE"
	ReasonAlreadyRegistered Reason = "ALREADY_REGISTERED"
	ReasonEventNotFound     Reason = "EVENT_NOT_FOUND"
	ReasonVolunteerNotFound Reason = "VOLUNTEER_NOT_FOUND"
	ReasonStoreError        Reason = "STORE_ERROR"
)

// Message is the user-facing text for a rejection reason.
func (r Reason) Message() string {
	switch r {
	case ReasonInvalidRequest:
		return "volunteerId and eventId are required"
	case ReasonNotEligible:
		return "Volunteer is not eligible for this event"
	case ReasonAlreadyRegistered:
		return "Volunteer is already registered for this event"
	case ReasonEventNotFound:
		return "Event not found"
	case ReasonVolunteerNotFound:
		return "Volunteer not found"
	case ReasonStoreError:
		return "Registration could not be saved, please try again"
	default:
		return ""
	}
}

// MatchOutcome is the tagged result of a match transaction. Rejections are
// data, not errors, so callers can render a message per reason.
type MatchOutcome struct {
	VolunteerID  int64         `json:"volunteerId"`
	EventID      int64         `json:"eventId"`
	State        MatchState    `json:"state"`
	Reason       Reason        `json:"reason,omitempty"`
	Message      string        `json:"message,omitempty"`
	Result       *MatchResult  `json:"result,omitempty"`
	Registration *Registration `json:"registration,omitempty"`
}

// Succeeded reports whether the registration was committed.
func (o MatchOutcome) Succeeded() bool { return o.State == StateRegistered }
