package repository

import (
	"github.com/okian/vmatch/internal/domain/model"
	"github.com/okian/vmatch/internal/domain/skills"
)

// DemoVolunteers returns the demo volunteer roster.
func DemoVolunteers() []model.Volunteer {
	return []model.Volunteer{
		{ID: 1, Name: "Alex Johnson", City: "Houston", Skills: skills.New("First Aid", "Spanish", "Crowd Control")},
		{ID: 2, Name: "Taylor Kim", City: "Houston", Skills: skills.New("Data Entry", "Photography")},
		{ID: 3, Name: "Mason Rivera", City: "Katy", Skills: skills.New("Spanish", "Food Handling", "Logistics")},
	}
}

// DemoEvents returns the demo event catalog.
func DemoEvents() []model.Event {
	return []model.Event{
		{
			ID: 101, Name: "Community Health Fair", Date: "2025-10-01", Location: "Houston",
			Description:    "Basic vitals, check-in, guiding attendees.",
			RequiredSkills: skills.New("First Aid", "Spanish"),
		},
		{
			ID: 102, Name: "Food Bank Drive", Date: "2025-10-12", Location: "Katy",
			Description:    "Sorting and distribution of non-perishables.",
			RequiredSkills: skills.New("Food Handling", "Logistics"),
		},
		{
			ID: 103, Name: "City Marathon Volunteer Crew", Date: "2025-10-05", Location: "Houston",
			Description:    "Course marshals and hydration stations.",
			RequiredSkills: skills.New("Crowd Control"),
		},
		{
			ID: 104, Name: "Community Newsletter Day", Date: "2025-10-07", Location: "Houston",
			Description:    "Capture photos and digitize signups.",
			RequiredSkills: skills.New("Data Entry", "Photography"),
		},
	}
}
