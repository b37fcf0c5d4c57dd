package audit

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryRepo struct {
	mu   sync.Mutex
	rows []TimelineRow
	last TimelineFilters
}

func (m *memoryRepo) add(rows ...TimelineRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	sort.SliceStable(m.rows, func(i, j int) bool { return m.rows[i].At.After(m.rows[j].At) })
}

func (m *memoryRepo) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	all, _ := m.All(ctx, f)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryRepo) All(_ context.Context, f TimelineFilters) ([]TimelineRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = f
	var out []TimelineRow
	for _, r := range m.rows {
		if !f.From.IsZero() && r.At.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !r.At.Before(f.To) {
			continue
		}
		if f.Actor != "" && !strings.Contains(strings.ToLower(r.Actor), strings.ToLower(f.Actor)) {
			continue
		}
		if f.Entity != "" && r.Entity != f.Entity {
			continue
		}
		if f.Action != "" && r.Action != f.Action {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
