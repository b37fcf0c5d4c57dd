package stages

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/obra-dashboard/obra/internal/shared"
)

var fieldMessages = map[string]string{
	"Name":           "Nome é obrigatório (até 120 caracteres)",
	"Title":          "Título é obrigatório (até 200 caracteres)",
	"Position":       "Ordem deve ser zero ou positiva",
	"Status":         "Situação inválida",
	"StoredProgress": "Progresso deve estar entre 0 e 100",
	"Assignee":       "Responsável muito longo",
	"StageID":        "Etapa inválida",
	"SubStageID":     "Sub-etapa inválida",
}

// ErrInvalidPeriod is reported when the planned end precedes the start.
var ErrInvalidPeriod = shared.FieldError{Field: "planned_end", Message: "Término previsto anterior ao início"}

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: validator.New()}
}

func (s *Service) ListStages(ctx context.Context) ([]Stage, error) {
	return s.repo.ListStages(ctx)
}

func (s *Service) GetStage(ctx context.Context, id int64) (Stage, error) {
	if id <= 0 {
		return Stage{}, shared.ErrNotFound
	}
	return s.repo.GetStage(ctx, id)
}

func (s *Service) CreateStage(ctx context.Context, stage Stage) (Stage, error) {
	if err := s.checkStage(&stage); err != nil {
		return Stage{}, err
	}
	return s.repo.CreateStage(ctx, stage)
}

func (s *Service) UpdateStage(ctx context.Context, id int64, stage Stage) error {
	if err := s.checkStage(&stage); err != nil {
		return err
	}
	return s.repo.UpdateStage(ctx, id, stage)
}

// DeleteStage removes the stage with its sub-stages and tasks. Stages
// referenced by purchases, expenses or budgets report shared.ErrInUse.
func (s *Service) DeleteStage(ctx context.Context, id int64) error {
	return s.repo.DeleteStage(ctx, id)
}

func (s *Service) GetSubStage(ctx context.Context, id int64) (SubStage, error) {
	if id <= 0 {
		return SubStage{}, shared.ErrNotFound
	}
	return s.repo.GetSubStage(ctx, id)
}

func (s *Service) CreateSubStage(ctx context.Context, sub SubStage) (SubStage, error) {
	if err := s.checkSubStage(&sub); err != nil {
		return SubStage{}, err
	}
	return s.repo.CreateSubStage(ctx, sub)
}

func (s *Service) UpdateSubStage(ctx context.Context, id int64, sub SubStage) error {
	if err := s.checkSubStage(&sub); err != nil {
		return err
	}
	return s.repo.UpdateSubStage(ctx, id, sub)
}

// SetProgress stores a manual percentage for a sub-stage. It only shows while
// the sub-stage has no tasks; nil clears it.
func (s *Service) SetProgress(ctx context.Context, id int64, progress *int) error {
	if progress != nil && (*progress < 0 || *progress > 100) {
		return shared.FieldError{Field: "progress", Message: fieldMessages["StoredProgress"]}
	}
	return s.repo.SetSubStageProgress(ctx, id, progress)
}

func (s *Service) DeleteSubStage(ctx context.Context, id int64) error {
	return s.repo.DeleteSubStage(ctx, id)
}

func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	if id <= 0 {
		return Task{}, shared.ErrNotFound
	}
	return s.repo.GetTask(ctx, id)
}

func (s *Service) CreateTask(ctx context.Context, task Task) (Task, error) {
	if err := s.checkTask(&task); err != nil {
		return Task{}, err
	}
	return s.repo.CreateTask(ctx, task)
}

func (s *Service) UpdateTask(ctx context.Context, id int64, task Task) error {
	if err := s.checkTask(&task); err != nil {
		return err
	}
	return s.repo.UpdateTask(ctx, id, task)
}

// ToggleTask sets the task status. An empty status advances the task to the
// next one in the workflow. The updated task is returned.
func (s *Service) ToggleTask(ctx context.Context, id int64, status string) (Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	status = strings.TrimSpace(status)
	switch {
	case status == "":
		status = NextStatus(task.Status)
	case !validStatus(status):
		return Task{}, shared.FieldError{Field: "status", Message: fieldMessages["Status"]}
	}
	if err := s.repo.SetTaskStatus(ctx, id, status); err != nil {
		return Task{}, err
	}
	task.Status = status
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.repo.DeleteTask(ctx, id)
}

// Overview computes the project wide numbers shown on the dashboard.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	stages, err := s.repo.ListStages(ctx)
	if err != nil {
		return Overview{}, err
	}
	return summarize(stages), nil
}

func summarize(stages []Stage) Overview {
	out := Overview{Stages: len(stages)}
	sum := 0
	for _, st := range stages {
		sum += st.Progress
		switch st.Status {
		case StatusCompleted:
			out.Completed++
		case StatusInProgress:
			out.InProgress++
			out.Current = append(out.Current, st)
		}
		for _, sub := range st.SubStages {
			for _, t := range sub.Tasks {
				if t.Status != StatusCompleted {
					out.OpenTasks++
				}
			}
		}
	}
	if len(stages) > 0 {
		out.Progress = roundHalfUp(sum, len(stages))
	}
	return out
}

func (s *Service) checkStage(stage *Stage) error {
	stage.Name = strings.TrimSpace(stage.Name)
	stage.Description = strings.TrimSpace(stage.Description)
	if stage.Status == "" {
		stage.Status = StatusPending
	}
	if err := s.validate.Struct(stage); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	if stage.PlannedStart != nil && stage.PlannedEnd != nil && stage.PlannedEnd.Before(*stage.PlannedStart) {
		return ErrInvalidPeriod
	}
	return nil
}

func (s *Service) checkSubStage(sub *SubStage) error {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Status == "" {
		sub.Status = StatusPending
	}
	if err := s.validate.Struct(sub); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	return nil
}

func (s *Service) checkTask(task *Task) error {
	task.Title = strings.TrimSpace(task.Title)
	task.Description = strings.TrimSpace(task.Description)
	task.Assignee = strings.TrimSpace(task.Assignee)
	if task.Status == "" {
		task.Status = StatusPending
	}
	if err := s.validate.Struct(task); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	return nil
}

func validStatus(status string) bool {
	for _, s := range Statuses() {
		if s == status {
			return true
		}
	}
	return false
}
