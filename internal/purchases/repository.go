package purchases

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	ListWithDetails(ctx context.Context, filters Filters) ([]Detail, int, error)
	GetWithDetails(ctx context.Context, id int64) (Detail, error)
	Create(ctx context.Context, p Purchase) (Purchase, error)
	Update(ctx context.Context, id int64, p Purchase) error
	MarkDelivered(ctx context.Context, id int64, on time.Time) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const detailSelect = `SELECT p.id, p.supplier_id, p.category_id, p.stage_id, p.description, p.quantity, p.unit,
p.total_value, p.purchase_date, p.delivery_date, p.status, COALESCE(p.invoice_number, ''), p.created_by,
p.created_at, p.updated_at, s.name, COALESCE(c.name, ''), COALESCE(st.name, ''), COALESCE(u.name, '')
FROM purchases p
JOIN suppliers s ON s.id = p.supplier_id
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN stages st ON st.id = p.stage_id
LEFT JOIN users u ON u.id = p.created_by`

// ListWithDetails returns the joined projection ordered by most recent purchase.
func (r *repository) ListWithDetails(ctx context.Context, f Filters) ([]Detail, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		where += " AND " + clause + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		add("p.status = $", f.Status)
	}
	if f.SupplierID != nil {
		add("p.supplier_id = $", *f.SupplierID)
	}
	if f.StageID != nil {
		add("p.stage_id = $", *f.StageID)
	}
	if f.Search != "" {
		add("p.description ILIKE $", "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := detailSelect + where + ` ORDER BY p.purchase_date DESC, p.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, f.Limit, f.Offset())
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	details, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Detail, error) { return scanDetail(row) })
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *repository) GetWithDetails(ctx context.Context, id int64) (Detail, error) {
	d, err := scanDetail(r.db.QueryRow(ctx, detailSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Detail{}, shared.ErrNotFound
	}
	return d, err
}

func (r *repository) Create(ctx context.Context, p Purchase) (Purchase, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO purchases (supplier_id, category_id, stage_id, description, quantity, unit,
total_value, purchase_date, delivery_date, status, invoice_number, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12) RETURNING id, created_at, updated_at`,
		p.SupplierID, p.CategoryID, p.StageID, p.Description, p.Quantity, p.Unit, p.TotalValue,
		p.PurchaseDate, p.DeliveryDate, p.Status, p.InvoiceNumber, p.CreatedBy).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Purchase{}, mapWriteErr(err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Purchase) error {
	tag, err := r.db.Exec(ctx, `UPDATE purchases SET supplier_id = $1, category_id = $2, stage_id = $3, description = $4,
quantity = $5, unit = $6, total_value = $7, purchase_date = $8, delivery_date = $9, status = $10,
invoice_number = NULLIF($11, ''), updated_at = NOW() WHERE id = $12`,
		p.SupplierID, p.CategoryID, p.StageID, p.Description, p.Quantity, p.Unit, p.TotalValue,
		p.PurchaseDate, p.DeliveryDate, p.Status, p.InvoiceNumber, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkDelivered(ctx context.Context, id int64, on time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE purchases SET status = $1, delivery_date = $2, updated_at = NOW()
WHERE id = $3`, StatusDelivered, on, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// mapWriteErr reports a dangling supplier/category/stage reference as a form error.
func mapWriteErr(err error) error {
	if db.IsForeignKeyViolation(err) {
		return shared.FieldError{Field: "supplier_id", Message: "Fornecedor, categoria ou etapa não encontrados"}
	}
	return err
}

func scanDetail(row pgx.Row) (Detail, error) {
	var d Detail
	err := row.Scan(&d.ID, &d.SupplierID, &d.CategoryID, &d.StageID, &d.Description, &d.Quantity, &d.Unit,
		&d.TotalValue, &d.PurchaseDate, &d.DeliveryDate, &d.Status, &d.InvoiceNumber, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt, &d.SupplierName, &d.CategoryName, &d.StageName, &d.CreatedByName)
	return d, err
}
