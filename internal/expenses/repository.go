package expenses

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters Filters) (Listing, error)
	Get(ctx context.Context, id int64) (Detail, error)
	// CreateBatch inserts all rows atomically; installments share a group.
	CreateBatch(ctx context.Context, rows []Expense) ([]Expense, error)
	Update(ctx context.Context, id int64, e Expense) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const detailSelect = `SELECT e.id, e.description, e.value, e.expense_date, e.payment_method,
COALESCE(e.invoice_number, ''), e.installment, e.installments, e.installment_group, e.supplier_id,
e.category_id, e.stage_id, e.created_by, e.created_at, e.updated_at,
COALESCE(s.name, ''), c.name, COALESCE(st.name, ''), COALESCE(u.name, '')
FROM expenses e
JOIN categories c ON c.id = e.category_id
LEFT JOIN suppliers s ON s.id = e.supplier_id
LEFT JOIN stages st ON st.id = e.stage_id
LEFT JOIN users u ON u.id = e.created_by`

func (r *repository) List(ctx context.Context, f Filters) (Listing, error) {
	where := ` WHERE 1=1`
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		where += " AND " + clause + strconv.Itoa(len(args))
	}
	if f.CategoryID != nil {
		add("e.category_id = $", *f.CategoryID)
	}
	if f.StageID != nil {
		add("e.stage_id = $", *f.StageID)
	}
	if f.SupplierID != nil {
		add("e.supplier_id = $", *f.SupplierID)
	}
	if f.Month != nil {
		add("e.expense_date >= $", *f.Month)
		add("e.expense_date < $", f.Month.AddDate(0, 1, 0))
	}
	if f.Search != "" {
		add("e.description ILIKE $", "%"+f.Search+"%")
	}

	var out Listing
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(e.value), 0) FROM expenses e`+where, args...).
		Scan(&out.Total, &out.Sum); err != nil {
		return Listing{}, err
	}

	query := detailSelect + where + ` ORDER BY e.expense_date DESC, e.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, f.Limit, f.Offset())
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Listing{}, err
	}
	out.Expenses, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (Detail, error) { return scanDetail(row) })
	if err != nil {
		return Listing{}, err
	}
	return out, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Detail, error) {
	d, err := scanDetail(r.pool.QueryRow(ctx, detailSelect+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, shared.ErrNotFound
	}
	return d, err
}

func (r *repository) CreateBatch(ctx context.Context, rows []Expense) ([]Expense, error) {
	out := make([]Expense, 0, len(rows))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, e := range rows {
			err := tx.QueryRow(ctx, `INSERT INTO expenses (description, value, expense_date, payment_method, invoice_number,
installment, installments, installment_group, supplier_id, category_id, stage_id, created_by)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12) RETURNING id, created_at, updated_at`,
				e.Description, e.Value, e.ExpenseDate, e.PaymentMethod, e.InvoiceNumber, e.Installment, e.Installments,
				e.InstallmentGroup, e.SupplierID, e.CategoryID, e.StageID, e.CreatedBy).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
			if err != nil {
				return mapWriteErr(err)
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, id int64, e Expense) error {
	tag, err := r.pool.Exec(ctx, `UPDATE expenses SET description = $1, value = $2, expense_date = $3, payment_method = $4,
invoice_number = NULLIF($5, ''), supplier_id = $6, category_id = $7, stage_id = $8, updated_at = NOW() WHERE id = $9`,
		e.Description, e.Value, e.ExpenseDate, e.PaymentMethod, e.InvoiceNumber, e.SupplierID, e.CategoryID, e.StageID, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	if db.IsForeignKeyViolation(err) {
		return shared.FieldError{Field: "category_id", Message: "Categoria, etapa ou fornecedor não encontrados"}
	}
	return err
}

func scanDetail(row pgx.Row) (Detail, error) {
	var d Detail
	err := row.Scan(&d.ID, &d.Description, &d.Value, &d.ExpenseDate, &d.PaymentMethod, &d.InvoiceNumber,
		&d.Installment, &d.Installments, &d.InstallmentGroup, &d.SupplierID, &d.CategoryID, &d.StageID,
		&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt, &d.SupplierName, &d.CategoryName, &d.StageName, &d.CreatedByName)
	return d, err
}
