package stages

import "time"

// Work statuses shared by stages, sub-stages and tasks.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Statuses lists the valid statuses in workflow order.
func Statuses() []string {
	return []string{StatusPending, StatusInProgress, StatusCompleted}
}

// NextStatus cycles pending -> in_progress -> completed -> pending.
func NextStatus(current string) string {
	switch current {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// Stage is a top-level phase of the construction, e.g. "Fundação".
type Stage struct {
	ID           int64
	Name         string `validate:"required,max=120"`
	Description  string
	Position     int `validate:"gte=0"`
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Status       string `validate:"oneof=pending in_progress completed"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	SubStages []SubStage `validate:"-"`
	Progress  int        `validate:"-"`
}

// SubStage splits a stage into trackable pieces of work.
type SubStage struct {
	ID             int64
	StageID        int64  `validate:"gt=0"`
	Name           string `validate:"required,max=120"`
	Position       int    `validate:"gte=0"`
	StoredProgress *int   `validate:"omitempty,gte=0,lte=100"`
	Status         string `validate:"oneof=pending in_progress completed"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Tasks    []Task `validate:"-"`
	Progress int    `validate:"-"`
}

// Task is a single to-do item inside a sub-stage.
type Task struct {
	ID          int64
	SubStageID  int64  `validate:"gt=0"`
	Title       string `validate:"required,max=200"`
	Description string
	Status      string `validate:"oneof=pending in_progress completed"`
	DueDate     *time.Time
	Assignee    string `validate:"max=120"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overview summarises the whole project for the dashboard.
type Overview struct {
	Progress   int
	Stages     int
	Completed  int
	InProgress int
	OpenTasks  int
	Current    []Stage
}
