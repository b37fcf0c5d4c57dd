package suppliers

import (
	"context"
	"sort"
	"strings"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Supplier
	inUse  map[int64]bool
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: make(map[int64]Supplier), inUse: make(map[int64]bool)}
}

func (m *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.rows {
		if filters.Search != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Supplier, error) {
	s, ok := m.rows[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(ctx context.Context, s Supplier) (Supplier, error) {
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = s
	return s, nil
}

func (m *memoryRepo) Update(ctx context.Context, id int64, s Supplier) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	s.ID = id
	m.rows[id] = s
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	if m.inUse[id] {
		return shared.ErrInUse
	}
	delete(m.rows, id)
	return nil
}
