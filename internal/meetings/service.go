package meetings

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/obra-dashboard/obra/internal/shared"
)

// listLimit caps each section of the meetings page.
const listLimit = 50

var fieldMessages = map[string]string{
	"Title":        "Título é obrigatório (até 200 caracteres)",
	"ScheduledAt":  "Informe data e hora",
	"Location":     "Local muito longo",
	"Participants": "Lista de participantes muito longa",
	"Agenda":       "Pauta muito longa",
	"Minutes":      "Ata muito longa",
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New(), now: time.Now}
}

// Schedule loads upcoming and past meetings together.
func (s *Service) Schedule(ctx context.Context) (Schedule, error) {
	now := s.now()
	var out Schedule
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Upcoming, err = s.repo.Upcoming(gctx, now, listLimit)
		return err
	})
	g.Go(func() (err error) {
		out.Past, err = s.repo.Past(gctx, now, listLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return Schedule{}, err
	}
	return out, nil
}

// Upcoming returns the next limit meetings, for the dashboard.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]Meeting, error) {
	return s.repo.Upcoming(ctx, s.now(), limit)
}

func (s *Service) Get(ctx context.Context, id int64) (Meeting, error) {
	if id <= 0 {
		return Meeting{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, m Meeting, actorID int64) (Meeting, error) {
	if err := s.check(&m); err != nil {
		return Meeting{}, err
	}
	if actorID > 0 {
		m.CreatedBy = &actorID
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Update(ctx context.Context, id int64, m Meeting) error {
	if err := s.check(&m); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, m)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) check(m *Meeting) error {
	m.Title = strings.TrimSpace(m.Title)
	m.Location = strings.TrimSpace(m.Location)
	m.Participants = strings.TrimSpace(m.Participants)
	m.Agenda = strings.TrimSpace(m.Agenda)
	m.Minutes = strings.TrimSpace(m.Minutes)
	if err := s.validate.Struct(m); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	return nil
}
