package suppliers

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/obra-dashboard/obra/internal/shared"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	supplier = normalize(supplier)
	if err := s.validateSupplier(supplier); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, supplier)
}

func (s *Service) Update(ctx context.Context, id int64, supplier Supplier) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	supplier = normalize(supplier)
	if err := s.validateSupplier(supplier); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, supplier)
}

// Delete fails with shared.ErrInUse while purchases or expenses reference the supplier.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func normalize(sup Supplier) Supplier {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.Document = strings.TrimSpace(sup.Document)
	sup.ServiceType = strings.TrimSpace(sup.ServiceType)
	sup.ContactName = strings.TrimSpace(sup.ContactName)
	sup.Phone = strings.TrimSpace(sup.Phone)
	sup.Email = strings.ToLower(strings.TrimSpace(sup.Email))
	sup.Notes = strings.TrimSpace(sup.Notes)
	return sup
}
