package meetings

import "time"

// Meeting is a scheduled project meeting with its agenda and minutes.
type Meeting struct {
	ID           int64
	Title        string    `validate:"required,max=200"`
	ScheduledAt  time.Time `validate:"required"`
	Location     string    `validate:"max=200"`
	Participants string    `validate:"max=1000"`
	Agenda       string    `validate:"max=5000"`
	Minutes      string    `validate:"max=20000"`
	CreatedBy    *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Past reports whether the meeting already happened at now.
func (m Meeting) Past(now time.Time) bool {
	return m.ScheduledAt.Before(now)
}

// Schedule splits meetings around a reference time.
type Schedule struct {
	Upcoming []Meeting
	Past     []Meeting
}
