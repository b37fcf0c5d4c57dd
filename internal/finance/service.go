package finance

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/obra-dashboard/obra/internal/budgets"
	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

// ReportSource provides the budget vs actual table.
type ReportSource interface {
	Report(ctx context.Context) (budgets.Report, error)
}

type Service struct {
	repo    Repository
	lookups lookups.Source
	budgets ReportSource
	cache   *Cache
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, src lookups.Source, budgets ReportSource, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, lookups: src, budgets: budgets, cache: cache, logger: logger, now: time.Now}
}

// Overview returns the category x stage matrix, served from the versioned
// cache when possible. Cache failures fall back to a direct build.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	key, err := s.cache.BuildKey(ctx, "overview")
	if err != nil {
		s.warn("finance cache key", err)
		return s.build(ctx)
	}
	var ov Overview
	err = s.cache.FetchJSON(ctx, key, &ov, func(ctx context.Context) (any, error) {
		return s.build(ctx)
	})
	if err != nil {
		s.warn("finance cache fetch", err)
		return s.build(ctx)
	}
	return ov, nil
}

// Warmup rebuilds the cached overview for the current version.
func (s *Service) Warmup(ctx context.Context) error {
	key, err := s.cache.BuildKey(ctx, "overview")
	if err != nil {
		return err
	}
	var ov Overview
	return s.cache.FetchJSON(ctx, key, &ov, func(ctx context.Context) (any, error) {
		return s.build(ctx)
	})
}

func (s *Service) build(ctx context.Context) (Overview, error) {
	var (
		categories []shared.Option
		stages     []shared.Option
		amounts    []Amount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = s.lookups.Categories(gctx)
		return err
	})
	g.Go(func() (err error) {
		stages, err = s.lookups.Stages(gctx)
		return err
	})
	g.Go(func() (err error) {
		amounts, err = s.repo.Amounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return BuildOverview(categories, stages, amounts, s.now()), nil
}

// ExpenseDetails lists the expenses behind one matrix cell.
func (s *Service) ExpenseDetails(ctx context.Context, categoryID, stageID int64) (ExpenseDetails, error) {
	lines, err := s.repo.ExpensesFor(ctx, categoryID, stageID)
	if err != nil {
		return ExpenseDetails{}, err
	}
	out := ExpenseDetails{Lines: lines, Total: decimal.Zero}
	for _, l := range lines {
		out.Total = out.Total.Add(l.Value)
	}
	return out, nil
}

var csvHeader = []string{"Categoria", "Etapa", "Previsto (R$)", "Gasto (R$)", "Saldo (R$)", "Uso (%)"}

// ExportCSV writes the budget vs actual report as a semicolon separated
// file with pt-BR number formatting.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	report, err := s.budgets.Report(ctx)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, line := range report.Lines {
		stage := line.StageName
		if stage == "" {
			stage = "Geral"
		}
		if err := cw.Write([]string{
			line.CategoryName,
			stage,
			shared.FormatDecimal(line.PlannedValue),
			shared.FormatDecimal(line.Spent),
			shared.FormatDecimal(line.Remaining),
			strconv.Itoa(line.UsedPercent),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		"Total", "",
		shared.FormatDecimal(report.Planned),
		shared.FormatDecimal(report.Spent),
		shared.FormatDecimal(report.Remaining),
		strconv.Itoa(report.UsedPercent),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err))
	}
}
