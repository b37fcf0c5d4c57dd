package notifications

import (
	"context"
	"log/slog"
	"strings"
)

// listLimit caps the notifications page.
const listLimit = 100

// MailQueue hands messages to the background mailer.
type MailQueue interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

type Service struct {
	repo   Repository
	mail   MailQueue
	logger *slog.Logger
}

// NewService constructs the service. A nil mail queue disables email delivery.
func NewService(repo Repository, mail MailQueue, logger *slog.Logger) *Service {
	return &Service{repo: repo, mail: mail, logger: logger}
}

// Notify stores the notification and, when requested, queues one email per
// recipient. Mail failures are logged and do not fail the call.
func (s *Service) Notify(ctx context.Context, msg Message) (Notification, error) {
	n, err := s.repo.Create(ctx, Notification{
		UserID: msg.UserID,
		Title:  strings.TrimSpace(msg.Title),
		Body:   strings.TrimSpace(msg.Body),
		Link:   msg.Link,
	})
	if err != nil {
		return Notification{}, err
	}
	if msg.Email && s.mail != nil {
		s.deliver(ctx, n)
	}
	return n, nil
}

func (s *Service) deliver(ctx context.Context, n Notification) {
	to, err := s.repo.Recipients(ctx, n.UserID)
	if err != nil {
		s.warn("resolve notification recipients", err, n.ID)
		return
	}
	body := n.Body
	if n.Link != "" {
		body += "\n\n" + n.Link
	}
	for _, addr := range to {
		if err := s.mail.EnqueueMail(ctx, addr, n.Title, body); err != nil {
			s.warn("enqueue notification mail", err, n.ID)
		}
	}
}

func (s *Service) List(ctx context.Context, userID int64) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID, listLimit)
}

// Recent returns the newest limit notifications, for the dashboard.
func (s *Service) Recent(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *Service) warn(msg string, err error, id int64) {
	if s.logger != nil {
		s.logger.Warn(msg, slog.Any("error", err), slog.Int64("notification_id", id))
	}
}
