package meetings

import (
	"context"
	"sort"
	"time"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Meeting
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Meeting{}}
}

func (m *memoryRepo) Upcoming(_ context.Context, from time.Time, limit int) ([]Meeting, error) {
	var out []Meeting
	for _, row := range m.rows {
		if !row.ScheduledAt.Before(from) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) Past(_ context.Context, from time.Time, limit int) ([]Meeting, error) {
	var out []Meeting
	for _, row := range m.rows {
		if row.ScheduledAt.Before(from) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Meeting, error) {
	row, ok := m.rows[id]
	if !ok {
		return Meeting{}, shared.ErrNotFound
	}
	return row, nil
}

func (m *memoryRepo) Create(_ context.Context, row Meeting) (Meeting, error) {
	m.nextID++
	row.ID = m.nextID
	m.rows[row.ID] = row
	return row, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, row Meeting) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	row.ID = id
	m.rows[id] = row
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
