package notifications

import "time"

// Notification is a message for one user, or for everyone when UserID is nil.
type Notification struct {
	ID        int64
	UserID    *int64
	Title     string
	Body      string
	Link      string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Unread reports whether the viewing user has not read it yet.
func (n Notification) Unread() bool {
	return n.ReadAt == nil
}

// Message is the input of Notify.
type Message struct {
	UserID *int64
	Title  string
	Body   string
	Link   string
	// Email also delivers the message to the recipients' mailboxes.
	Email bool
}
