package users

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/obra-dashboard/obra/internal/shared"
)

// ErrSelfLockout prevents an admin from demoting or disabling themselves.
var ErrSelfLockout = shared.FieldError{Field: "role", Message: "Você não pode remover o seu próprio acesso de administrador"}

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, in CreateInput, passwordHash string) (User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateInput) error
}

// Service handles user business logic.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
	cost     int
	audit    shared.AuditPort
	logger   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: validator.New(), cost: bcrypt.DefaultCost, audit: shared.NopAudit{}}
}

// WithAudit records account changes in the audit log.
func (s *Service) WithAudit(audit shared.AuditPort, logger *slog.Logger) *Service {
	s.audit, s.logger = audit, logger
	return s
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser returns a single user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser validates the input, hashes the password and stores the account.
func (s *Service) CreateUser(ctx context.Context, actorID int64, in CreateInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return User{}, shared.FromValidator(err, fieldMessages)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, in, string(hashed))
	if err != nil {
		return User{}, err
	}
	s.record(ctx, actorID, "user.create", user.ID, map[string]any{"role": user.Role})
	return user, nil
}

// UpdateUser changes an account. actorID is the admin performing the change.
func (s *Service) UpdateUser(ctx context.Context, actorID, id int64, in UpdateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if actorID == id && (in.Role != "admin" || !in.IsActive) {
		return ErrSelfLockout
	}
	if err := s.repo.UpdateUser(ctx, id, in); err != nil {
		return err
	}
	s.record(ctx, actorID, "user.update", id, map[string]any{"role": in.Role, "active": in.IsActive})
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit user", slog.Any("error", err), slog.String("action", action))
	}
}

var fieldMessages = map[string]string{
	"Name":     "Nome é obrigatório",
	"Email":    "Informe um e-mail válido",
	"Password": "A senha deve ter pelo menos 8 caracteres",
	"Role":     "Perfil inválido",
}
