package budgets

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"CategoryID": "Selecione a categoria",
	"StageID":    "Etapa inválida",
	"Notes":      "Observações muito longas",
}

// ErrDuplicatePair is reported when the (category, stage) pair already has a budget.
var ErrDuplicatePair = shared.FieldError{Field: "category_id", Message: "Já existe orçamento para esta categoria e etapa"}

type Service struct {
	repo     Repository
	lookups  lookups.Source
	cache    shared.Invalidator
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(repo Repository, src lookups.Source, cache shared.Invalidator, logger *slog.Logger) *Service {
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	return &Service{repo: repo, lookups: src, cache: cache, logger: logger, validate: validator.New()}
}

// Report builds the budget vs actual table.
func (s *Service) Report(ctx context.Context) (Report, error) {
	details, err := s.repo.ListWithSpent(ctx)
	if err != nil {
		return Report{}, err
	}
	return BuildReport(details), nil
}

func (s *Service) Get(ctx context.Context, id int64) (Budget, error) {
	if id <= 0 {
		return Budget{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// FormOptions loads categories and stages for the budget form.
func (s *Service) FormOptions(ctx context.Context) (lookups.Bundle, error) {
	return lookups.Load(ctx, s.lookups)
}

func (s *Service) Create(ctx context.Context, b Budget) (Budget, error) {
	if err := s.check(&b); err != nil {
		return Budget{}, err
	}
	created, err := s.repo.Create(ctx, b)
	if err != nil {
		return Budget{}, duplicateAsField(err)
	}
	s.bump(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, b Budget) error {
	if err := s.check(&b); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, b); err != nil {
		return duplicateAsField(err)
	}
	s.bump(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

func (s *Service) check(b *Budget) error {
	b.Notes = strings.TrimSpace(b.Notes)
	if err := s.validate.Struct(b); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if b.PlannedValue.IsNegative() {
		return shared.FieldError{Field: "planned_value", Message: "Valor previsto não pode ser negativo"}
	}
	return nil
}

func (s *Service) bump(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump finance cache", slog.Any("error", err))
	}
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return ErrDuplicatePair
	}
	return err
}
