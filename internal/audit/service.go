package audit

import (
	"context"
	"errors"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Repository reads audit_logs.
type Repository interface {
	// Window returns at most limit rows starting at offset, newest first.
	Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error)
	// All returns every row matching f, newest first.
	All(ctx context.Context, f TimelineFilters) ([]TimelineRow, error)
}

// Service serves the audit timeline.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline returns one page of entries. One extra row is fetched to tell
// whether a next page exists.
func (s *Service) Timeline(ctx context.Context, f TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, errors.New("audit: repository not configured")
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	rows, err := s.repo.Window(ctx, normalize(f), (page-1)*pageSize, pageSize+1)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// Export returns every entry matching f without paging.
func (s *Service) Export(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.All(ctx, normalize(f))
}

// normalize turns the inclusive To day into an exclusive upper bound.
func normalize(f TimelineFilters) TimelineFilters {
	if !f.To.IsZero() {
		f.To = f.To.Truncate(24 * time.Hour).Add(24 * time.Hour)
	}
	return f
}
