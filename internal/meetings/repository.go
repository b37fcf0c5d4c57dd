package meetings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/shared"
)

type Repository interface {
	// Upcoming lists meetings at or after from, soonest first.
	Upcoming(ctx context.Context, from time.Time, limit int) ([]Meeting, error)
	// Past lists meetings before from, most recent first.
	Past(ctx context.Context, from time.Time, limit int) ([]Meeting, error)
	Get(ctx context.Context, id int64) (Meeting, error)
	Create(ctx context.Context, m Meeting) (Meeting, error)
	Update(ctx context.Context, id int64, m Meeting) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const meetingColumns = `id, title, scheduled_at, location, participants, agenda, minutes, created_by, created_at, updated_at`

func (r *repository) Upcoming(ctx context.Context, from time.Time, limit int) ([]Meeting, error) {
	return r.list(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE scheduled_at >= $1 ORDER BY scheduled_at ASC, id LIMIT $2`, from, limit)
}

func (r *repository) Past(ctx context.Context, from time.Time, limit int) ([]Meeting, error) {
	return r.list(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE scheduled_at < $1 ORDER BY scheduled_at DESC, id DESC LIMIT $2`, from, limit)
}

func (r *repository) list(ctx context.Context, query string, from time.Time, limit int) ([]Meeting, error) {
	rows, err := r.db.Query(ctx, query, from, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Meeting, error) { return scanMeeting(row) })
}

func (r *repository) Get(ctx context.Context, id int64) (Meeting, error) {
	m, err := scanMeeting(r.db.QueryRow(ctx, `SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, shared.ErrNotFound
	}
	return m, err
}

func (r *repository) Create(ctx context.Context, m Meeting) (Meeting, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO meetings (title, scheduled_at, location, participants, agenda, minutes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`,
		m.Title, m.ScheduledAt, m.Location, m.Participants, m.Agenda, m.Minutes, m.CreatedBy).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repository) Update(ctx context.Context, id int64, m Meeting) error {
	tag, err := r.db.Exec(ctx, `UPDATE meetings SET title = $2, scheduled_at = $3, location = $4, participants = $5,
agenda = $6, minutes = $7, updated_at = NOW() WHERE id = $1`,
		id, m.Title, m.ScheduledAt, m.Location, m.Participants, m.Agenda, m.Minutes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMeeting(row pgx.Row) (Meeting, error) {
	var m Meeting
	err := row.Scan(&m.ID, &m.Title, &m.ScheduledAt, &m.Location, &m.Participants, &m.Agenda, &m.Minutes,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
