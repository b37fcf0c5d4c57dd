package finance

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// Amounts aggregates budgets and expenses per (category, stage) pair.
	Amounts(ctx context.Context) ([]Amount, error)
	// ExpensesFor lists the expenses of one (category, stage) pair, newest first.
	ExpensesFor(ctx context.Context, categoryID, stageID int64) ([]ExpenseLine, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Amounts(ctx context.Context) ([]Amount, error) {
	rows, err := r.pool.Query(ctx, `WITH planned AS (
    SELECT category_id, stage_id, SUM(planned_value) AS total FROM budgets GROUP BY category_id, stage_id
), spent AS (
    SELECT category_id, stage_id, SUM(value) AS total FROM expenses GROUP BY category_id, stage_id
)
SELECT COALESCE(p.category_id, s.category_id), COALESCE(p.stage_id, s.stage_id),
       COALESCE(p.total, 0), COALESCE(s.total, 0)
FROM planned p
FULL OUTER JOIN spent s ON s.category_id = p.category_id AND s.stage_id IS NOT DISTINCT FROM p.stage_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Amount, error) {
		var a Amount
		err := row.Scan(&a.CategoryID, &a.StageID, &a.Budget, &a.Spent)
		return a, err
	})
}

func (r *repository) ExpensesFor(ctx context.Context, categoryID, stageID int64) ([]ExpenseLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.description, e.value, e.expense_date, e.payment_method,
e.invoice_number, e.installment, e.installments, s.name, u.name
FROM expenses e
LEFT JOIN suppliers s ON s.id = e.supplier_id
LEFT JOIN users u ON u.id = e.created_by
WHERE e.category_id = $1 AND e.stage_id = $2
ORDER BY e.expense_date DESC, e.id DESC`, categoryID, stageID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ExpenseLine, error) {
		var l ExpenseLine
		err := row.Scan(&l.ID, &l.Description, &l.Value, &l.Date, &l.PaymentMethod,
			&l.InvoiceNumber, &l.Installment, &l.Installments, &l.SupplierName, &l.CreatedByName)
		return l, err
	})
}
