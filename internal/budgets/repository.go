package budgets

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	// ListWithSpent returns every budget with the expenses summed for its
	// exact (category, stage) pair; a budget without stage matches expenses
	// without stage.
	ListWithSpent(ctx context.Context) ([]Detail, error)
	Get(ctx context.Context, id int64) (Budget, error)
	Create(ctx context.Context, b Budget) (Budget, error)
	Update(ctx context.Context, id int64, b Budget) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListWithSpent(ctx context.Context) ([]Detail, error) {
	rows, err := r.pool.Query(ctx, `SELECT b.id, b.category_id, b.stage_id, b.planned_value, b.notes, b.created_at, b.updated_at,
c.name, COALESCE(st.name, ''),
COALESCE((SELECT SUM(e.value) FROM expenses e
          WHERE e.category_id = b.category_id AND e.stage_id IS NOT DISTINCT FROM b.stage_id), 0)
FROM budgets b
JOIN categories c ON c.id = b.category_id
LEFT JOIN stages st ON st.id = b.stage_id
ORDER BY c.name, st.position NULLS FIRST, b.id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Detail, error) {
		var d Detail
		err := row.Scan(&d.ID, &d.CategoryID, &d.StageID, &d.PlannedValue, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
			&d.CategoryName, &d.StageName, &d.Spent)
		return d, err
	})
}

func (r *repository) Get(ctx context.Context, id int64) (Budget, error) {
	var b Budget
	err := r.pool.QueryRow(ctx, `SELECT id, category_id, stage_id, planned_value, notes, created_at, updated_at
FROM budgets WHERE id = $1`, id).Scan(&b.ID, &b.CategoryID, &b.StageID, &b.PlannedValue, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Budget{}, shared.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, b Budget) (Budget, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO budgets (category_id, stage_id, planned_value, notes)
VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		b.CategoryID, b.StageID, b.PlannedValue, b.Notes).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Budget{}, mapWriteErr(err)
	}
	return b, nil
}

func (r *repository) Update(ctx context.Context, id int64, b Budget) error {
	tag, err := r.pool.Exec(ctx, `UPDATE budgets SET category_id = $1, stage_id = $2, planned_value = $3, notes = $4,
updated_at = NOW() WHERE id = $5`, b.CategoryID, b.StageID, b.PlannedValue, b.Notes, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return shared.ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return shared.FieldError{Field: "category_id", Message: "Categoria ou etapa não encontrada"}
	default:
		return err
	}
}
