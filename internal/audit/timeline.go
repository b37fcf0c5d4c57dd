package audit

import "time"

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one audit_logs entry joined with its actor.
type TimelineRow struct {
	At       time.Time
	ActorID  *int64
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
}

// ActorName returns the actor label shown for system actions.
func (r TimelineRow) ActorName() string {
	if r.Actor == "" {
		return "sistema"
	}
	return r.Actor
}

// PagingInfo holds window based pagination metadata.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// Result wraps a page of the timeline.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}
