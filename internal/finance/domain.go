package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Amount is the planned and spent money of one (category, stage) pair.
// StageID is nil for expenses and budgets without stage.
type Amount struct {
	CategoryID int64           `json:"category_id"`
	StageID    *int64          `json:"stage_id"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
}

// Cell is one position of the category x stage matrix.
type Cell struct {
	StageID     *int64          `json:"stage_id"`
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	UsedPercent int             `json:"used_percent"`
}

// Over reports whether the cell spent more than budgeted.
func (c Cell) Over() bool {
	return c.Budget.IsPositive() && c.Spent.GreaterThan(c.Budget)
}

// Empty reports whether the cell carries no money at all.
func (c Cell) Empty() bool {
	return c.Budget.IsZero() && c.Spent.IsZero()
}

// Row is one category across all stage columns.
type Row struct {
	Category shared.Option `json:"category"`
	Cells    []Cell        `json:"cells"`
	Total    Cell          `json:"total"`
}

// Overview is the finance summary matrix rendered at /financeiro.
type Overview struct {
	Stages      []shared.Option `json:"stages"`
	Rows        []Row           `json:"rows"`
	StageTotals []Cell          `json:"stage_totals"`
	Total       Cell            `json:"total"`
	Remaining   decimal.Decimal `json:"remaining"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ExpenseLine is an expense as returned by the details API.
type ExpenseLine struct {
	ID            int64
	Description   string
	Value         decimal.Decimal
	Date          time.Time
	PaymentMethod string
	InvoiceNumber *string
	Installment   *int
	Installments  int
	SupplierName  *string
	CreatedByName *string
}

// ExpenseDetails lists the expenses of a (category, stage) pair with their sum.
type ExpenseDetails struct {
	Lines []ExpenseLine
	Total decimal.Decimal
}
