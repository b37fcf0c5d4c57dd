package lookups

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/obra-dashboard/obra/internal/shared"
)

// Bundle holds the option lists of a form that references suppliers,
// categories and stages.
type Bundle struct {
	Suppliers  []shared.Option
	Categories []shared.Option
	Stages     []shared.Option
}

// Load fetches the three lists concurrently.
func Load(ctx context.Context, src Source) (Bundle, error) {
	var b Bundle
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts, err := src.Suppliers(ctx)
		b.Suppliers = opts
		return err
	})
	g.Go(func() error {
		opts, err := src.Categories(ctx)
		b.Categories = opts
		return err
	})
	g.Go(func() error {
		opts, err := src.Stages(ctx)
		b.Stages = opts
		return err
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return b, nil
}
