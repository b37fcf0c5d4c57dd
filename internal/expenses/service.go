package expenses

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/obra-dashboard/obra/internal/lookups"
	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"Description":   "Descrição é obrigatória (até 240 caracteres)",
	"ExpenseDate":   "Data é obrigatória",
	"PaymentMethod": "Forma de pagamento inválida",
	"InvoiceNumber": "Número da nota muito longo",
	"Installments":  "Parcelas devem estar entre 1 e 48",
	"SupplierID":    "Fornecedor inválido",
	"CategoryID":    "Selecione a categoria",
	"StageID":       "Etapa inválida",
}

// EmailLinker marks a monitored e-mail as processed by the expense created from it.
type EmailLinker interface {
	LinkExpense(ctx context.Context, emailID, expenseID int64) error
}

// CreateInput describes a new expense, optionally split in installments.
type CreateInput struct {
	Expense      Expense
	Installments int
	ActorID      int64
	EmailID      *int64
}

type Service struct {
	repo     Repository
	lookups  lookups.Source
	cache    shared.Invalidator
	audit    shared.AuditPort
	emails   EmailLinker
	logger   *slog.Logger
	validate *validator.Validate
	newGroup func() uuid.UUID
}

func NewService(repo Repository, src lookups.Source, cache shared.Invalidator, audit shared.AuditPort, logger *slog.Logger) *Service {
	if cache == nil {
		cache = shared.NopInvalidator{}
	}
	if audit == nil {
		audit = shared.NopAudit{}
	}
	return &Service{
		repo:     repo,
		lookups:  src,
		cache:    cache,
		audit:    audit,
		logger:   logger,
		validate: validator.New(),
		newGroup: uuid.New,
	}
}

// WithEmailLinker enables closing monitored e-mails converted into expenses.
func (s *Service) WithEmailLinker(l EmailLinker) *Service {
	s.emails = l
	return s
}

func (s *Service) List(ctx context.Context, filters Filters) (Listing, error) {
	return s.repo.List(ctx, filters)
}

// Recent returns the latest expenses for the dashboard.
func (s *Service) Recent(ctx context.Context, limit int) ([]Detail, error) {
	listing, err := s.repo.List(ctx, Filters{Page: 1, Limit: limit})
	if err != nil {
		return nil, err
	}
	return listing.Expenses, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	if id <= 0 {
		return Detail{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// FormOptions loads the select lists of the expense form.
func (s *Service) FormOptions(ctx context.Context) (lookups.Bundle, error) {
	return lookups.Load(ctx, s.lookups)
}

// Create stores the expense. With more than one installment it stores one
// row per installment, one month apart, sharing an installment group.
func (s *Service) Create(ctx context.Context, in CreateInput) ([]Expense, error) {
	e := in.Expense
	n := in.Installments
	if n == 0 {
		n = 1
	}
	e.Installments = n
	if err := s.check(&e); err != nil {
		return nil, err
	}
	if e.Value.Round(2).Shift(2).IntPart() < int64(n) {
		return nil, shared.FieldError{Field: "value", Message: "Valor insuficiente para " + strconv.Itoa(n) + " parcelas"}
	}
	if in.ActorID > 0 {
		e.CreatedBy = &in.ActorID
	}

	rows := []Expense{e}
	if n > 1 {
		group := s.newGroup()
		rows = rows[:0]
		for _, part := range SplitInstallments(e.Value, n, e.ExpenseDate) {
			row := e
			number := part.Number
			row.Installment = &number
			row.InstallmentGroup = &group
			row.Value = part.Value
			row.ExpenseDate = part.Date
			rows = append(rows, row)
		}
	}

	created, err := s.repo.CreateBatch(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.record(ctx, in.ActorID, "expense.create", created[0].ID, map[string]any{
		"value":        e.Value.StringFixed(2),
		"installments": n,
		"category_id":  e.CategoryID,
	})
	s.bump(ctx)

	if in.EmailID != nil && s.emails != nil {
		if err := s.emails.LinkExpense(ctx, *in.EmailID, created[0].ID); err != nil && s.logger != nil {
			s.logger.Warn("link e-mail to expense", slog.Any("error", err), slog.Int64("email_id", *in.EmailID))
		}
	}
	return created, nil
}

// Update edits a single row; the installment layout is kept.
func (s *Service) Update(ctx context.Context, id int64, e Expense, actorID int64) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	e.Installments = current.Installments
	if err := s.check(&e); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, e); err != nil {
		return err
	}
	s.record(ctx, actorID, "expense.update", id, map[string]any{"value": e.Value.StringFixed(2)})
	s.bump(ctx)
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "expense.delete", id, nil)
	s.bump(ctx)
	return nil
}

func (s *Service) check(e *Expense) error {
	e.Description = strings.TrimSpace(e.Description)
	e.InvoiceNumber = strings.TrimSpace(e.InvoiceNumber)
	if e.PaymentMethod == "" {
		e.PaymentMethod = defaultPaymentMethod
	}
	if err := s.validate.Struct(e); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if !e.Value.IsPositive() {
		return shared.FieldError{Field: "value", Message: "Valor deve ser maior que zero"}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "expense",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit expense", slog.Any("error", err), slog.String("action", action))
	}
}

func (s *Service) bump(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump finance cache", slog.Any("error", err))
	}
}
