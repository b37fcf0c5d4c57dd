package documents

import (
	"context"
	"sort"
	"time"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Document
	nextID int64
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Document{}}
}

func (m *memoryRepo) List(_ context.Context, f Filters) ([]Detail, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Detail
	for _, d := range m.rows {
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		out = append(out, Detail{Document: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Document, error) {
	d, ok := m.rows[id]
	if !ok {
		return Document{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memoryRepo) Create(_ context.Context, d Document) (Document, error) {
	if m.err != nil {
		return Document{}, m.err
	}
	m.nextID++
	d.ID = m.nextID
	d.CreatedAt = time.Now()
	m.rows[d.ID] = d
	return d, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
