package model

import "time"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationAssignment NotificationType = "assignment"
	NotificationUpdate     NotificationType = "update"
	NotificationReminder   NotificationType = "reminder"
)

// MaxNotificationMessageLen caps notification message length.
const MaxNotificationMessageLen = 200

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAssignment, NotificationUpdate, NotificationReminder:
		return true
	}
	return false
}

// Notification is a stored message for a user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"userId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	EventID   *int64           `json:"eventId"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"timestamp"`
}

// NotificationRequest is a queued request to notify a recipient. It is
// produced after a registration commits and consumed asynchronously.
type NotificationRequest struct {
	RequestID   string
	RecipientID int64
	Type        NotificationType
	Message     string
	EventID     *int64
	RequestedAt time.Time
}

// HistoryEntry is a volunteer participation log row.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	VolunteerID   int64     `json:"volunteerId"`
	EventID       *int64    `json:"eventId,omitempty"`
	Description   string    `json:"description"`
	Hours         float64   `json:"hours"`
	Status        string    `json:"status"`
	VolunteerDate string    `json:"volunteerDate"`
	CreatedAt     time.Time `json:"timestamp"`
}

// LogsHours reports whether the entry counts toward hour totals.
func (e HistoryEntry) LogsHours() bool { return e.Hours > 0 }

// HistorySummary aggregates every entry that logged hours.
type HistorySummary struct {
	TotalVolunteers int     `json:"totalVolunteers"`
	TotalEntries    int     `json:"totalEntries"`
	TotalHours      float64 `json:"totalHours"`
}

// VolunteerHours is one volunteer's logged totals.
type VolunteerHours struct {
	VolunteerID int64   `json:"volunteerId"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	EntryCount  int     `json:"eventCount"`
	TotalHours  float64 `json:"totalHours"`
}
