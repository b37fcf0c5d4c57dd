package purchases

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"SupplierID":    "Selecione o fornecedor",
	"CategoryID":    "Categoria inválida",
	"StageID":       "Etapa inválida",
	"Description":   "Descrição é obrigatória (até 240 caracteres)",
	"Unit":          "Informe a unidade (un, m², saco...)",
	"PurchaseDate":  "Data da compra é obrigatória",
	"Status":        "Situação inválida",
	"InvoiceNumber": "Número da nota muito longo",
}

// ErrCancelled is returned when delivering a cancelled purchase.
var ErrCancelled = shared.FieldError{Field: "status", Message: "Compra cancelada não pode ser marcada como entregue"}

type Service struct {
	repo     Repository
	lookups  lookups.Source
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, src lookups.Source) *Service {
	return &Service{repo: repo, lookups: src, validate: validator.New(), now: time.Now}
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Detail, int, error) {
	return s.repo.ListWithDetails(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	if id <= 0 {
		return Detail{}, shared.ErrNotFound
	}
	return s.repo.GetWithDetails(ctx, id)
}

// FormOptions loads the select lists of the purchase form.
func (s *Service) FormOptions(ctx context.Context) (lookups.Bundle, error) {
	return lookups.Load(ctx, s.lookups)
}

func (s *Service) Create(ctx context.Context, p Purchase, actorID int64) (Purchase, error) {
	if err := s.check(&p); err != nil {
		return Purchase{}, err
	}
	if actorID > 0 {
		p.CreatedBy = &actorID
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int64, p Purchase) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.check(&p); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, p)
}

// MarkDelivered records the delivery today, keeping a previously set date.
func (s *Service) MarkDelivered(ctx context.Context, id int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	switch current.Status {
	case StatusCancelled:
		return ErrCancelled
	case StatusDelivered:
		return nil
	}
	on := s.now().UTC().Truncate(24 * time.Hour)
	if current.DeliveryDate != nil {
		on = *current.DeliveryDate
	}
	return s.repo.MarkDelivered(ctx, id, on)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(p *Purchase) error {
	p.Description = strings.TrimSpace(p.Description)
	p.Unit = strings.TrimSpace(p.Unit)
	p.InvoiceNumber = strings.TrimSpace(p.InvoiceNumber)
	if p.Unit == "" {
		p.Unit = "un"
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if err := s.validate.Struct(p); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if !p.Quantity.IsPositive() {
		return shared.FieldError{Field: "quantity", Message: "Quantidade deve ser maior que zero"}
	}
	if p.TotalValue.IsNegative() {
		return shared.FieldError{Field: "total_value", Message: "Valor total não pode ser negativo"}
	}
	if p.DeliveryDate != nil && p.DeliveryDate.Before(p.PurchaseDate) {
		return shared.FieldError{Field: "delivery_date", Message: "Entrega anterior à data da compra"}
	}
	return nil
}
