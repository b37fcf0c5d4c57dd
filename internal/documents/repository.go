package documents

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
	List(ctx context.Context, filters Filters) ([]Detail, error)
	Get(ctx context.Context, id int64) (Document, error)
	Create(ctx context.Context, d Document) (Document, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const documentColumns = `d.id, d.title, d.category, d.stage_id, d.filename, d.content_type, d.size_bytes,
d.object_key, d.uploaded_by, d.created_at`

func (r *repository) List(ctx context.Context, f Filters) ([]Detail, error) {
	query := `SELECT ` + documentColumns + `, COALESCE(s.name, ''), COALESCE(u.name, '')
FROM documents d
LEFT JOIN stages s ON s.id = d.stage_id
LEFT JOIN users u ON u.id = d.uploaded_by
WHERE 1=1`
	args := []any{}
	add := func(clause string, v any) {
		args = append(args, v)
		query += " AND " + clause + strconv.Itoa(len(args))
	}
	if f.Category != "" {
		add("d.category = $", f.Category)
	}
	if f.StageID != nil {
		add("d.stage_id = $", *f.StageID)
	}
	if f.Search != "" {
		add("(d.title || ' ' || d.filename) ILIKE $", "%"+f.Search+"%")
	}
	query += ` ORDER BY d.created_at DESC, d.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Detail, error) {
		var d Detail
		err := row.Scan(&d.ID, &d.Title, &d.Category, &d.StageID, &d.Filename, &d.ContentType, &d.SizeBytes,
			&d.ObjectKey, &d.UploadedBy, &d.CreatedAt, &d.StageName, &d.UploadedByName)
		return d, err
	})
}

func (r *repository) Get(ctx context.Context, id int64) (Document, error) {
	var d Document
	err := r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents d WHERE d.id = $1`, id).
		Scan(&d.ID, &d.Title, &d.Category, &d.StageID, &d.Filename, &d.ContentType, &d.SizeBytes,
			&d.ObjectKey, &d.UploadedBy, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, shared.ErrNotFound
	}
	return d, err
}

func (r *repository) Create(ctx context.Context, d Document) (Document, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO documents (title, category, stage_id, filename, content_type, size_bytes, object_key, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`,
		d.Title, d.Category, d.StageID, d.Filename, d.ContentType, d.SizeBytes, d.ObjectKey, d.UploadedBy).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Document{}, shared.FieldError{Field: "stage_id", Message: fieldMessages["StageID"]}
		}
		return Document{}, err
	}
	return d, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
