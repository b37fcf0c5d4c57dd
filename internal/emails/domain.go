package emails

import "time"

const (
	StatusNew       = "new"
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
)

// Statuses lists the valid e-mail states in display order.
func Statuses() []string {
	return []string{StatusNew, StatusProcessed, StatusIgnored}
}

// MaxMessageSize bounds a raw inbound message.
const MaxMessageSize = 10 << 20

// Email is a monitored message received through the inbound hook.
type Email struct {
	ID          int64
	MessageID   string
	Sender      string
	Subject     string
	Body        string
	ReceivedAt  time.Time
	Status      string
	ExpenseID   *int64
	ProcessedAt *time.Time
	CreatedAt   time.Time
}

// Filters narrow the e-mail list.
type Filters struct {
	Status string
	Page   int
	Limit  int
}

// Offset returns the row offset for the current page.
func (f Filters) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
