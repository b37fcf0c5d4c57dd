package purchases

import (
	"context"
	"sort"
	"time"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Purchase
	names  map[int64]string
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Purchase{}, names: map[int64]string{}}
}

func (m *memoryRepo) detail(p Purchase) Detail {
	return Detail{Purchase: p, SupplierName: m.names[p.SupplierID]}
}

func (m *memoryRepo) ListWithDetails(_ context.Context, f Filters) ([]Detail, int, error) {
	var out []Detail
	for _, p := range m.rows {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.SupplierID != nil && p.SupplierID != *f.SupplierID {
			continue
		}
		out = append(out, m.detail(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) GetWithDetails(_ context.Context, id int64) (Detail, error) {
	p, ok := m.rows[id]
	if !ok {
		return Detail{}, shared.ErrNotFound
	}
	return m.detail(p), nil
}

func (m *memoryRepo) Create(_ context.Context, p Purchase) (Purchase, error) {
	m.nextID++
	p.ID = m.nextID
	m.rows[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, p Purchase) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	m.rows[id] = p
	return nil
}

func (m *memoryRepo) MarkDelivered(_ context.Context, id int64, on time.Time) error {
	p, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Status = StatusDelivered
	p.DeliveryDate = &on
	m.rows[id] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
