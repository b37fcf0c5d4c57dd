// Package lookups loads the id/name pairs that feed select inputs across
// the obra forms.
package lookups

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Source is the read side consumed by feature services.
type Source interface {
	Suppliers(ctx context.Context) ([]shared.Option, error)
	Categories(ctx context.Context) ([]shared.Option, error)
	Stages(ctx context.Context) ([]shared.Option, error)
}

// Repository queries option lists from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the lookup repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Suppliers lists suppliers by name.
func (r *Repository) Suppliers(ctx context.Context) ([]shared.Option, error) {
	return r.options(ctx, `SELECT id, name FROM suppliers ORDER BY name`)
}

// Categories lists spending categories by name.
func (r *Repository) Categories(ctx context.Context) ([]shared.Option, error) {
	return r.options(ctx, `SELECT id, name FROM categories ORDER BY name`)
}

// Stages lists stages in construction order.
func (r *Repository) Stages(ctx context.Context) ([]shared.Option, error) {
	return r.options(ctx, `SELECT id, name FROM stages ORDER BY position, id`)
}

func (r *Repository) options(ctx context.Context, query string) ([]shared.Option, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []shared.Option
	for rows.Next() {
		var opt shared.Option
		if err := rows.Scan(&opt.ID, &opt.Name); err != nil {
			return nil, err
		}
		out = append(out, opt)
	}
	return out, rows.Err()
}

// Static serves fixed option lists, used by tests and seeds.
type Static struct {
	SupplierOptions []shared.Option
	CategoryOptions []shared.Option
	StageOptions    []shared.Option
	Err             error
}

// Suppliers implements Source.
func (s Static) Suppliers(context.Context) ([]shared.Option, error) { return s.SupplierOptions, s.Err }

// Categories implements Source.
func (s Static) Categories(context.Context) ([]shared.Option, error) { return s.CategoryOptions, s.Err }

// Stages implements Source.
func (s Static) Stages(context.Context) ([]shared.Option, error) { return s.StageOptions, s.Err }

var _ Source = (*Repository)(nil)
var _ Source = Static{}
