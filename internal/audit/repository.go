package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const timelineSelect = `SELECT a.occurred_at, a.actor_id, COALESCE(u.name, ''), a.action, a.entity, a.entity_id, a.meta
FROM audit_logs a
LEFT JOIN users u ON u.id = a.actor_id`

func (r *repository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	where, args := whereClause(f)
	args = append(args, limit, offset)
	sql := fmt.Sprintf("%s%s ORDER BY a.occurred_at DESC, a.id DESC LIMIT $%d OFFSET $%d", timelineSelect, where, len(args)-1, len(args))
	return r.query(ctx, sql, args...)
}

func (r *repository) All(ctx context.Context, f TimelineFilters) ([]TimelineRow, error) {
	where, args := whereClause(f)
	return r.query(ctx, timelineSelect+where+" ORDER BY a.occurred_at DESC, a.id DESC", args...)
}

func (r *repository) query(ctx context.Context, sql string, args ...any) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (TimelineRow, error) {
		var (
			out  TimelineRow
			meta []byte
		)
		if err := row.Scan(&out.At, &out.ActorID, &out.Actor, &out.Action, &out.Entity, &out.EntityID, &meta); err != nil {
			return out, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &out.Meta); err != nil {
				return out, err
			}
		}
		return out, nil
	})
}

func whereClause(f TimelineFilters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		add("a.occurred_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.occurred_at < $%d", f.To)
	}
	if v := strings.TrimSpace(f.Actor); v != "" {
		add("u.name ILIKE ('%%' || $%d || '%%')", v)
	}
	if v := strings.TrimSpace(f.Entity); v != "" {
		add("a.entity = $%d", v)
	}
	if v := strings.TrimSpace(f.Action); v != "" {
		add("a.action = $%d", v)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
