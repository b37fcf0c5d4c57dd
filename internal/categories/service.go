package categories

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"Name":        "Nome da categoria é obrigatório",
	"Description": "Descrição muito longa",
}

type Service struct {
	repo     Repository
	cache    shared.Invalidator
	logger   *slog.Logger
	validate *validator.Validate
}

func NewService(repo Repository, cache shared.Invalidator, logger *slog.Logger) *Service {
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	return &Service{repo: repo, cache: cache, logger: logger, validate: validator.New()}
}

func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if err := s.validate.Struct(c); err != nil {
		return Category{}, shared.FromValidator(err, fieldMessages)
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return Category{}, duplicateAsField(err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, c Category) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if err := s.validate.Struct(c); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if err := s.repo.Update(ctx, id, c); err != nil {
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

func (s *Service) bump(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump finance cache", slog.Any("error", err))
	}
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		return shared.FieldError{Field: "name", Message: "Já existe uma categoria com esse nome"}
	}
	return err
}
