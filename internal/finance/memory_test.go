package finance

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/budgets"
)

type memoryRepo struct {
	amounts  []Amount
	lines    map[[2]int64][]ExpenseLine
	err      error
	calls    atomic.Int32
	lastPair [2]int64
}

func (m *memoryRepo) Amounts(context.Context) ([]Amount, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.amounts, nil
}

func (m *memoryRepo) ExpensesFor(_ context.Context, categoryID, stageID int64) ([]ExpenseLine, error) {
	m.lastPair = [2]int64{categoryID, stageID}
	if m.err != nil {
		return nil, m.err
	}
	return m.lines[m.lastPair], nil
}

type staticReport struct {
	report budgets.Report
	err    error
}

func (s staticReport) Report(context.Context) (budgets.Report, error) {
	return s.report, s.err
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func strPtr(s string) *string { return &s }
