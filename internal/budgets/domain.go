package budgets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Budget is the planned spending for a category, optionally within a stage.
type Budget struct {
	ID           int64
	CategoryID   int64  `validate:"gt=0"`
	StageID      *int64 `validate:"omitempty,gt=0"`
	PlannedValue decimal.Decimal
	Notes        string `validate:"max=500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Detail carries the referenced names and the amount already spent.
type Detail struct {
	Budget
	CategoryName string
	StageName    string
	Spent        decimal.Decimal
}

// Line is one row of the budget vs actual report.
type Line struct {
	Detail
	Remaining   decimal.Decimal
	UsedPercent int
}

// Over reports whether spending exceeded the plan.
func (l Line) Over() bool {
	return l.Remaining.IsNegative()
}

// Report is the budget vs actual table with its totals.
type Report struct {
	Lines       []Line
	Planned     decimal.Decimal
	Spent       decimal.Decimal
	Remaining   decimal.Decimal
	UsedPercent int
}

// NewLine derives remaining and used percentage from a detail row.
func NewLine(d Detail) Line {
	return Line{
		Detail:      d,
		Remaining:   d.PlannedValue.Sub(d.Spent),
		UsedPercent: shared.RoundPercent(d.Spent, d.PlannedValue),
	}
}

// BuildReport assembles lines and totals in the given order.
func BuildReport(details []Detail) Report {
	r := Report{Planned: decimal.Zero, Spent: decimal.Zero}
	for _, d := range details {
		line := NewLine(d)
		r.Lines = append(r.Lines, line)
		r.Planned = r.Planned.Add(d.PlannedValue)
		r.Spent = r.Spent.Add(d.Spent)
	}
	r.Remaining = r.Planned.Sub(r.Spent)
	r.UsedPercent = shared.RoundPercent(r.Spent, r.Planned)
	return r
}
