// Package matching decides which events a volunteer is eligible for and
// orders them by skill overlap.
//
// Everything here is pure: no I/O, no caching, safe for concurrent use.
package matching

import (
	"sort"

	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/skills"
)

// Evaluator computes eligibility and rankings under a fixed policy.
type Evaluator struct {
	policy Policy
}

// New creates an Evaluator using DefaultPolicy unless overridden.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{policy: DefaultPolicy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the active policy.
func (e *Evaluator) Policy() Policy { return e.policy }

// Overlap counts the event's required skills the volunteer has.
func Overlap(v model.Volunteer, ev model.Event) int {
	return skills.Intersect(v.Skills, ev.RequiredSkills)
}

// Evaluate returns the match result for one pair.
func (e *Evaluator) Evaluate(v model.Volunteer, ev model.Event) model.MatchResult {
	matched := skills.Shared(ev.RequiredSkills, v.Skills)
	required := ev.RequiredSkills.Len()
	return model.MatchResult{
		VolunteerID:   v.ID,
		EventID:       ev.ID,
		OverlapCount:  len(matched),
		RequiredCount: required,
		Eligible:      e.policy.Satisfied(len(matched), required),
		MatchedSkills: matched,
	}
}

// IsEligible reports whether v may register for ev.
func (e *Evaluator) IsEligible(v model.Volunteer, ev model.Event) bool {
	return e.Evaluate(v, ev).Eligible
}

// Annotate evaluates every event in catalog order, eligible or not.
func (e *Evaluator) Annotate(v model.Volunteer, events []model.Event) []model.MatchResult {
	out := make([]model.MatchResult, len(events))
	for i, ev := range events {
		out[i] = e.Evaluate(v, ev)
	}
	return out
}

// Rank returns the eligible events ordered by overlap, highest first.
// Ties keep catalog order. The input slice is not modified.
func (e *Evaluator) Rank(v model.Volunteer, events []model.Event) []model.MatchResult {
	ranked := make([]model.MatchResult, 0, len(events))
	for _, ev := range events {
		if r := e.Evaluate(v, ev); r.Eligible {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverlapCount > ranked[j].OverlapCount
	})
	return ranked
}

// SuggestBest returns the top ranked event. ok is false when nothing is
// eligible, which is a normal answer rather than an error.
func (e *Evaluator) SuggestBest(v model.Volunteer, events []model.Event) (best model.MatchResult, ok bool) {
	ranked := e.Rank(v, events)
	if len(ranked) == 0 {
		return model.MatchResult{}, false
	}
	return ranked[0], true
}
