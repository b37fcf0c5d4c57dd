package notifications

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	// ListForUser returns the user's and broadcast notifications, newest first,
	// with ReadAt set from the user's read receipts.
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	Create(ctx context.Context, n Notification) (Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	// Recipients resolves the mailboxes of a user, or of every active user
	// when userID is nil.
	Recipients(ctx context.Context, userID *int64) ([]string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const visibleTo = `(n.user_id IS NULL OR n.user_id = $1)`

func (r *repository) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT n.id, n.user_id, n.title, n.body, n.link, n.created_at, nr.read_at
FROM notifications n
LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.user_id = $1
WHERE `+visibleTo+`
ORDER BY n.created_at DESC, n.id DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Link, &n.CreatedAt, &n.ReadAt)
		return n, err
	})
}

func (r *repository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*)
FROM notifications n
WHERE `+visibleTo+`
AND NOT EXISTS (SELECT 1 FROM notification_reads nr WHERE nr.notification_id = n.id AND nr.user_id = $1)`, userID).Scan(&count)
	return count, err
}

func (r *repository) Create(ctx context.Context, n Notification) (Notification, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO notifications (user_id, title, body, link) VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, n.UserID, n.Title, n.Body, n.Link).Scan(&n.ID, &n.CreatedAt)
	return n, err
}

func (r *repository) MarkRead(ctx context.Context, id, userID int64) error {
	var visible bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM notifications n WHERE n.id = $2 AND `+visibleTo+`)`, userID, id).Scan(&visible); err != nil {
		return err
	}
	if !visible {
		return shared.ErrNotFound
	}
	_, err := r.db.Exec(ctx, `INSERT INTO notification_reads (notification_id, user_id) VALUES ($1, $2)
ON CONFLICT (notification_id, user_id) DO NOTHING`, id, userID)
	return err
}

func (r *repository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO notification_reads (notification_id, user_id)
SELECT n.id, $1 FROM notifications n WHERE `+visibleTo+`
ON CONFLICT (notification_id, user_id) DO NOTHING`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) Recipients(ctx context.Context, userID *int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT email FROM users WHERE is_active AND ($1::bigint IS NULL OR id = $1) ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
