// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/vmatch/internal/domain/skills"
)

// Volunteer is a person who can be matched to events. Read-only to matching.
type Volunteer struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Skills skills.Set `json:"skills"`
	City   string     `json:"city,omitempty"`
	Email  string     `json:"email,omitempty"`
	Phone  string     `json:"phone,omitempty"`
}

// Event is something volunteers can register for.
type Event struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Date           string     `json:"date,omitempty"`
	Location       string     `json:"location,omitempty"`
	Description    string     `json:"description,omitempty"`
	RequiredSkills skills.Set `json:"requiredSkills"`
	// Capacity is informational; registrations are not capped by it.
	Capacity *int `json:"capacity,omitempty"`
}

// RegistrationStatus is the lifecycle state of a stored registration.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusCancelled  RegistrationStatus = "cancelled"
)

// Registration records that a volunteer is assigned to an event.
// Identity is the (VolunteerID, EventID) pair.
type Registration struct {
	VolunteerID int64              `json:"volunteerId"`
	EventID     int64              `json:"eventId"`
	Status      RegistrationStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// MatchResult is the eligibility of one volunteer for one event. It is
// computed per request and never stored.
type MatchResult struct {
	VolunteerID   int64 `json:"volunteerId"`
	EventID       int64 `json:"eventId"`
	OverlapCount  int   `json:"overlapCount"`
	RequiredCount int   `json:"requiredCount"`
	Eligible      bool  `json:"eligible"`
	// MatchedSkills lists the shared tags in the event's required order.
	MatchedSkills []string `json:"matchedSkills"`
}

// AnnotatedEvent pairs an event with a volunteer's match result and
// registration status, the shape a picker needs to disable options.
type AnnotatedEvent struct {
	Event      Event       `json:"event"`
	Match      MatchResult `json:"match"`
	Registered bool        `json:"registered"`
}

// MatchView is everything needed to present match choices for a volunteer.
type MatchView struct {
	Volunteer  Volunteer        `json:"volunteer"`
	Events     []AnnotatedEvent `json:"events"`
	Ranked     []MatchResult    `json:"ranked"`
	Suggestion *MatchResult     `json:"suggestion"`
}
