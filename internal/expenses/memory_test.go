package expenses

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Expense
	nextID int64
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Expense{}}
}

func (m *memoryRepo) List(_ context.Context, f Filters) (Listing, error) {
	if m.err != nil {
		return Listing{}, m.err
	}
	var out Listing
	out.Sum = decimal.Zero
	for _, e := range m.rows {
		if f.CategoryID != nil && e.CategoryID != *f.CategoryID {
			continue
		}
		out.Expenses = append(out.Expenses, Detail{Expense: e})
		out.Sum = out.Sum.Add(e.Value)
	}
	sort.Slice(out.Expenses, func(i, j int) bool { return out.Expenses[i].ID < out.Expenses[j].ID })
	out.Total = len(out.Expenses)
	if f.Limit > 0 && len(out.Expenses) > f.Limit {
		out.Expenses = out.Expenses[:f.Limit]
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Detail, error) {
	e, ok := m.rows[id]
	if !ok {
		return Detail{}, shared.ErrNotFound
	}
	return Detail{Expense: e}, nil
}

func (m *memoryRepo) CreateBatch(_ context.Context, rows []Expense) ([]Expense, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Expense, 0, len(rows))
	for _, e := range rows {
		m.nextID++
		e.ID = m.nextID
		m.rows[e.ID] = e
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, e Expense) error {
	cur, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.ID = id
	e.Installment = cur.Installment
	e.InstallmentGroup = cur.InstallmentGroup
	m.rows[id] = e
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

type recordingAudit struct{ logs []shared.AuditLog }

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type linkRecorder struct{ links map[int64]int64 }

func (l *linkRecorder) LinkExpense(_ context.Context, emailID, expenseID int64) error {
	if l.links == nil {
		l.links = map[int64]int64{}
	}
	l.links[emailID] = expenseID
	return nil
}
