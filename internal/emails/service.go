package emails

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/obra-dashboard/obra/internal/notifications"
	"github.com/obra-dashboard/obra/internal/shared"
)

// Notifier announces newly stored e-mails.
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message) (notifications.Notification, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

// Ingest parses and stores a raw message. Known message ids are not stored
// twice; created is false for them and no notification is sent.
func (s *Service) Ingest(ctx context.Context, raw []byte) (Email, bool, error) {
	received := s.now()
	parsed, err := Parse(raw, received)
	if err != nil {
		return Email{}, false, err
	}
	stored, created, err := s.repo.Insert(ctx, Email{
		MessageID:  parsed.MessageID,
		Sender:     parsed.Sender,
		Subject:    parsed.Subject,
		Body:       parsed.Body,
		ReceivedAt: parsed.Date,
		Status:     StatusNew,
	})
	if err != nil || !created {
		return stored, created, err
	}
	if s.notifier != nil {
		subject := stored.Subject
		if subject == "" {
			subject = "(sem assunto)"
		}
		if _, err := s.notifier.Notify(ctx, notifications.Message{
			Title: "Novo e-mail de " + stored.Sender,
			Body:  subject,
			Link:  emailPath(stored.ID),
		}); err != nil && s.logger != nil {
			s.logger.Warn("notify new email", slog.Any("error", err), slog.Int64("email_id", stored.ID))
		}
	}
	return stored, true, nil
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Email, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Email, error) {
	if id <= 0 {
		return Email{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Pending counts e-mails still waiting for triage.
func (s *Service) Pending(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusNew)
}

// SetStatus moves an e-mail between new, processed and ignored.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	switch status {
	case StatusNew, StatusProcessed, StatusIgnored:
	default:
		return shared.FieldError{Field: "status", Message: "Situação inválida"}
	}
	return s.repo.SetStatus(ctx, id, status, s.now())
}

// LinkExpense marks the e-mail processed by the given expense.
func (s *Service) LinkExpense(ctx context.Context, emailID, expenseID int64) error {
	return s.repo.LinkExpense(ctx, emailID, expenseID, s.now())
}

// ExpenseFormURL is the prefilled new-expense form for an e-mail.
func ExpenseFormURL(e Email) string {
	q := url.Values{}
	q.Set("descricao", e.Subject)
	q.Set("email_id", strconv.FormatInt(e.ID, 10))
	return "/gastos/new?" + q.Encode()
}

func emailPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
