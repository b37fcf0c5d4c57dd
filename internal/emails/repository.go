package emails

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Email, int, error)
	Get(ctx context.Context, id int64) (Email, error)
	// Insert stores the e-mail unless its message id is known; created
	// reports which case happened and the stored row is returned either way.
	Insert(ctx context.Context, e Email) (stored Email, created bool, err error)
	SetStatus(ctx context.Context, id int64, status string, at time.Time) error
	LinkExpense(ctx context.Context, id, expenseID int64, at time.Time) error
	CountByStatus(ctx context.Context, status string) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const emailColumns = `id, message_id, sender, subject, body, received_at, status, expense_id, processed_at, created_at`

func (r *repository) List(ctx context.Context, f Filters) ([]Email, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM monitored_emails`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + emailColumns + ` FROM monitored_emails` + where + ` ORDER BY received_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, f.Limit, f.Offset())
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Email, error) { return scanEmail(row) })
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Email, error) {
	e, err := scanEmail(r.db.QueryRow(ctx, `SELECT `+emailColumns+` FROM monitored_emails WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Email{}, shared.ErrNotFound
	}
	return e, err
}

func (r *repository) Insert(ctx context.Context, e Email) (Email, bool, error) {
	stored, err := scanEmail(r.db.QueryRow(ctx, `INSERT INTO monitored_emails (message_id, sender, subject, body, received_at, status)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (message_id) DO NOTHING
RETURNING `+emailColumns, e.MessageID, e.Sender, e.Subject, e.Body, e.ReceivedAt, e.Status))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Email{}, false, err
	}
	existing, err := scanEmail(r.db.QueryRow(ctx, `SELECT `+emailColumns+` FROM monitored_emails WHERE message_id = $1`, e.MessageID))
	if err != nil {
		return Email{}, false, err
	}
	return existing, false, nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status string, at time.Time) error {
	var processedAt *time.Time
	if status != StatusNew {
		processedAt = &at
	}
	tag, err := r.db.Exec(ctx, `UPDATE monitored_emails SET status = $2, processed_at = $3 WHERE id = $1`, id, status, processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) LinkExpense(ctx context.Context, id, expenseID int64, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE monitored_emails SET status = $2, expense_id = $3, processed_at = $4 WHERE id = $1`,
		id, StatusProcessed, expenseID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM monitored_emails WHERE status = $1`, status).Scan(&n)
	return n, err
}

func scanEmail(row pgx.Row) (Email, error) {
	var e Email
	err := row.Scan(&e.ID, &e.MessageID, &e.Sender, &e.Subject, &e.Body, &e.ReceivedAt, &e.Status,
		&e.ExpenseID, &e.ProcessedAt, &e.CreatedAt)
	return e, err
}
