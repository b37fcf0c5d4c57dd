// Package dashboard assembles the landing page from every feature module.
package dashboard

import (
	"context"
	"html/template"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/obra-dashboard/obra/internal/expenses"
	"github.com/obra-dashboard/obra/internal/finance"
	"github.com/obra-dashboard/obra/internal/meetings"
	"github.com/obra-dashboard/obra/internal/notifications"
	"github.com/obra-dashboard/obra/internal/stages"
)

const (
	meetingsLimit      = 5
	notificationsLimit = 5
	expensesLimit      = 8
)

type StageSource interface {
	Overview(ctx context.Context) (stages.Overview, error)
}

type FinanceSource interface {
	Overview(ctx context.Context) (finance.Overview, error)
}

type MeetingSource interface {
	Upcoming(ctx context.Context, limit int) ([]meetings.Meeting, error)
}

type NotificationSource interface {
	Recent(ctx context.Context, userID int64, limit int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
}

type ExpenseSource interface {
	Recent(ctx context.Context, limit int) ([]expenses.Detail, error)
}

type EmailSource interface {
	Pending(ctx context.Context) (int, error)
}

// Sources lists the modules read by the dashboard. Nil sources are skipped.
type Sources struct {
	Stages        StageSource
	Finance       FinanceSource
	Meetings      MeetingSource
	Notifications NotificationSource
	Expenses      ExpenseSource
	Emails        EmailSource
}

// Viewer scopes what is loaded for the current user.
type Viewer struct {
	UserID      int64
	SeeFinance  bool
	ManageEmail bool
}

// View is the dashboard content. Sections whose read failed are listed in
// Failed and left empty.
type View struct {
	Progress      stages.Overview
	Finance       *finance.Overview
	Chart         template.HTML
	Meetings      []meetings.Meeting
	Notifications []notifications.Notification
	Unread        int
	Expenses      []expenses.Detail
	PendingEmails int
	Failed        []string
}

// SectionFailed reports whether the named section could not be loaded.
func (v View) SectionFailed(name string) bool {
	for _, f := range v.Failed {
		if f == name {
			return true
		}
	}
	return false
}

type Service struct {
	src    Sources
	logger *slog.Logger
}

func NewService(src Sources, logger *slog.Logger) *Service {
	return &Service{src: src, logger: logger}
}

// Load reads every section concurrently. A failing read never fails the
// page; the section is reported in View.Failed instead.
func (s *Service) Load(ctx context.Context, viewer Viewer) View {
	var (
		v       View
		failed  = make([]bool, 6)
		g, gctx = errgroup.WithContext(ctx)
	)
	// Each goroutine writes only its own fields of v.
	section := func(i int, name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				failed[i] = true
				s.logger.Warn("dashboard section failed", slog.String("section", name), slog.Any("error", err))
			}
			return nil
		})
	}

	if s.src.Stages != nil {
		section(0, "progress", func(ctx context.Context) error {
			ov, err := s.src.Stages.Overview(ctx)
			v.Progress = ov
			return err
		})
	}
	if s.src.Finance != nil && viewer.SeeFinance {
		section(1, "finance", func(ctx context.Context) error {
			ov, err := s.src.Finance.Overview(ctx)
			if err != nil {
				return err
			}
			v.Finance = &ov
			if chart, err := BudgetChart(ov); err == nil {
				v.Chart = chart
			}
			return nil
		})
	}
	if s.src.Meetings != nil {
		section(2, "meetings", func(ctx context.Context) error {
			items, err := s.src.Meetings.Upcoming(ctx, meetingsLimit)
			v.Meetings = items
			return err
		})
	}
	if s.src.Notifications != nil && viewer.UserID > 0 {
		section(3, "notifications", func(ctx context.Context) error {
			items, err := s.src.Notifications.Recent(ctx, viewer.UserID, notificationsLimit)
			if err != nil {
				return err
			}
			v.Notifications = items
			v.Unread, err = s.src.Notifications.UnreadCount(ctx, viewer.UserID)
			return err
		})
	}
	if s.src.Expenses != nil && viewer.SeeFinance {
		section(4, "expenses", func(ctx context.Context) error {
			items, err := s.src.Expenses.Recent(ctx, expensesLimit)
			v.Expenses = items
			return err
		})
	}
	if s.src.Emails != nil && viewer.ManageEmail {
		section(5, "emails", func(ctx context.Context) error {
			n, err := s.src.Emails.Pending(ctx)
			v.PendingEmails = n
			return err
		})
	}
	_ = g.Wait()

	names := []string{"progress", "finance", "meetings", "notifications", "expenses", "emails"}
	for i, f := range failed {
		if f {
			v.Failed = append(v.Failed, names[i])
		}
	}
	return v
}
