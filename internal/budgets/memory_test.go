package budgets

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
)

type pair struct {
	category int64
	stage    int64
}

type memoryRepo struct {
	rows   map[int64]Budget
	spent  map[pair]decimal.Decimal
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Budget{}, spent: map[pair]decimal.Decimal{}}
}

func keyOf(b Budget) pair {
	p := pair{category: b.CategoryID}
	if b.StageID != nil {
		p.stage = *b.StageID
	}
	return p
}

func (m *memoryRepo) ListWithSpent(context.Context) ([]Detail, error) {
	var out []Detail
	for _, b := range m.rows {
		spent, ok := m.spent[keyOf(b)]
		if !ok {
			spent = decimal.Zero
		}
		out = append(out, Detail{Budget: b, CategoryName: "Categoria", Spent: spent})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Budget, error) {
	b, ok := m.rows[id]
	if !ok {
		return Budget{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) duplicate(b Budget, except int64) bool {
	for id, other := range m.rows {
		if id != except && keyOf(other) == keyOf(b) {
			return true
		}
	}
	return false
}

func (m *memoryRepo) Create(_ context.Context, b Budget) (Budget, error) {
	if m.duplicate(b, 0) {
		return Budget{}, shared.ErrDuplicate
	}
	m.nextID++
	b.ID = m.nextID
	m.rows[b.ID] = b
	return b, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, b Budget) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	if m.duplicate(b, id) {
		return shared.ErrDuplicate
	}
	b.ID = id
	m.rows[id] = b
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}
