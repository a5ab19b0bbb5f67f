package service

import (
	"errors"
	"fmt"

	"github.com/okian/vmatch/internal/domain/model"
)

// ErrInvalidTransition is returned when a match transaction is moved out of
// a terminal state or skips Pending.
var ErrInvalidTransition = errors.New("invalid match state transition")

// Transaction tracks one attempt to register a volunteer for an event:
// Unmatched -> Pending -> Registered | Rejected. A request that fails
// validation goes straight from Unmatched to Rejected.
type Transaction struct {
	VolunteerID int64
	EventID     int64

	state model.MatchState
	trail []model.MatchState
}

// NewTransaction starts a transaction in the Unmatched state.
func NewTransaction(volunteerID, eventID int64) *Transaction {
	return &Transaction{
		VolunteerID: volunteerID,
		EventID:     eventID,
		state:       model.StateUnmatched,
		trail:       []model.MatchState{model.StateUnmatched},
	}
}

// State returns the current state.
func (t *Transaction) State() model.MatchState { return t.state }

// Trail returns every state visited, in order.
func (t *Transaction) Trail() []model.MatchState {
	return append([]model.MatchState(nil), t.trail...)
}

// Begin moves Unmatched to Pending.
func (t *Transaction) Begin() error {
	return t.move(model.StatePending, model.StateUnmatched)
}

// Commit moves Pending to Registered.
func (t *Transaction) Commit() error {
	return t.move(model.StateRegistered, model.StatePending)
}

// Reject moves Unmatched or Pending to Rejected.
func (t *Transaction) Reject() error {
	return t.move(model.StateRejected, model.StateUnmatched, model.StatePending)
}

func (t *Transaction) move(to model.MatchState, from ...model.MatchState) error {
	for _, f := range from {
		if t.state == f {
			t.state = to
			t.trail = append(t.trail, to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, to)
}
