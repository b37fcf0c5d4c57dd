package stages

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/obra-dashboard/obra/internal/platform/db"
	"github.com/obra-dashboard/obra/internal/shared"
)

// Repository persists the stage -> sub-stage -> task tree.
type Repository interface {
	ListStages(ctx context.Context) ([]Stage, error)
	GetStage(ctx context.Context, id int64) (Stage, error)
	CreateStage(ctx context.Context, stage Stage) (Stage, error)
	UpdateStage(ctx context.Context, id int64, stage Stage) error
	DeleteStage(ctx context.Context, id int64) error

	GetSubStage(ctx context.Context, id int64) (SubStage, error)
	CreateSubStage(ctx context.Context, sub SubStage) (SubStage, error)
	UpdateSubStage(ctx context.Context, id int64, sub SubStage) error
	SetSubStageProgress(ctx context.Context, id int64, progress *int) error
	DeleteSubStage(ctx context.Context, id int64) error

	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, task Task) (Task, error)
	UpdateTask(ctx context.Context, id int64, task Task) error
	SetTaskStatus(ctx context.Context, id int64, status string) error
	DeleteTask(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const (
	stageColumns    = `id, name, description, position, planned_start, planned_end, status, created_at, updated_at`
	subStageColumns = `id, stage_id, name, position, progress, status, created_at, updated_at`
	taskColumns     = `t.id, t.sub_stage_id, t.title, t.description, t.status, t.due_date, t.assignee, t.created_at, t.updated_at`
)

func (r *repository) ListStages(ctx context.Context) ([]Stage, error) {
	rows, err := r.db.Query(ctx, `SELECT `+stageColumns+` FROM stages ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	stages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Stage, error) { return scanStage(row) })
	if err != nil {
		return nil, err
	}
	if err := r.attachChildren(ctx, stages, nil); err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *repository) GetStage(ctx context.Context, id int64) (Stage, error) {
	stage, err := scanStage(r.db.QueryRow(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, shared.ErrNotFound
	}
	if err != nil {
		return Stage{}, err
	}
	list := []Stage{stage}
	if err := r.attachChildren(ctx, list, &id); err != nil {
		return Stage{}, err
	}
	return list[0], nil
}

// attachChildren loads sub-stages and tasks in two queries and hangs them
// under the given stages. stageID narrows both queries to a single stage.
func (r *repository) attachChildren(ctx context.Context, stages []Stage, stageID *int64) error {
	if len(stages) == 0 {
		return nil
	}
	subRows, err := r.db.Query(ctx, `SELECT `+subStageColumns+` FROM sub_stages
WHERE ($1::bigint IS NULL OR stage_id = $1) ORDER BY position, id`, stageID)
	if err != nil {
		return err
	}
	subs, err := pgx.CollectRows(subRows, func(row pgx.CollectableRow) (SubStage, error) { return scanSubStage(row) })
	if err != nil {
		return err
	}

	taskRows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks t
JOIN sub_stages s ON s.id = t.sub_stage_id
WHERE ($1::bigint IS NULL OR s.stage_id = $1)
ORDER BY t.due_date NULLS LAST, t.id`, stageID)
	if err != nil {
		return err
	}
	tasks, err := pgx.CollectRows(taskRows, func(row pgx.CollectableRow) (Task, error) { return scanTask(row) })
	if err != nil {
		return err
	}

	assemble(stages, subs, tasks)
	return nil
}

// assemble builds the tree and computes progress; input slices keep their order.
func assemble(stages []Stage, subs []SubStage, tasks []Task) {
	tasksBySub := make(map[int64][]Task)
	for _, t := range tasks {
		tasksBySub[t.SubStageID] = append(tasksBySub[t.SubStageID], t)
	}
	subsByStage := make(map[int64][]SubStage)
	for _, s := range subs {
		s.Tasks = tasksBySub[s.ID]
		subsByStage[s.StageID] = append(subsByStage[s.StageID], s)
	}
	for i := range stages {
		stages[i].SubStages = subsByStage[stages[i].ID]
		decorate(&stages[i])
	}
}

func (r *repository) CreateStage(ctx context.Context, s Stage) (Stage, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO stages (name, description, position, planned_start, planned_end, status)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		s.Name, s.Description, s.Position, s.PlannedStart, s.PlannedEnd, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Stage{}, err
	}
	return s, nil
}

func (r *repository) UpdateStage(ctx context.Context, id int64, s Stage) error {
	tag, err := r.db.Exec(ctx, `UPDATE stages SET name = $1, description = $2, position = $3, planned_start = $4,
planned_end = $5, status = $6, updated_at = NOW() WHERE id = $7`,
		s.Name, s.Description, s.Position, s.PlannedStart, s.PlannedEnd, s.Status, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) DeleteStage(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stages WHERE id = $1`, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) GetSubStage(ctx context.Context, id int64) (SubStage, error) {
	sub, err := scanSubStage(r.db.QueryRow(ctx, `SELECT `+subStageColumns+` FROM sub_stages WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return SubStage{}, shared.ErrNotFound
	}
	return sub, err
}

func (r *repository) CreateSubStage(ctx context.Context, s SubStage) (SubStage, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO sub_stages (stage_id, name, position, progress, status)
VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		s.StageID, s.Name, s.Position, s.StoredProgress, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return SubStage{}, shared.ErrNotFound
		}
		return SubStage{}, err
	}
	return s, nil
}

func (r *repository) UpdateSubStage(ctx context.Context, id int64, s SubStage) error {
	tag, err := r.db.Exec(ctx, `UPDATE sub_stages SET name = $1, position = $2, progress = $3, status = $4,
updated_at = NOW() WHERE id = $5`, s.Name, s.Position, s.StoredProgress, s.Status, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) SetSubStageProgress(ctx context.Context, id int64, progress *int) error {
	tag, err := r.db.Exec(ctx, `UPDATE sub_stages SET progress = $1, updated_at = NOW() WHERE id = $2`, progress, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) DeleteSubStage(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sub_stages WHERE id = $1`, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, shared.ErrNotFound
	}
	return t, err
}

func (r *repository) CreateTask(ctx context.Context, t Task) (Task, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO tasks (sub_stage_id, title, description, status, due_date, assignee)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`,
		t.SubStageID, t.Title, t.Description, t.Status, t.DueDate, t.Assignee).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return Task{}, shared.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

func (r *repository) UpdateTask(ctx context.Context, id int64, t Task) error {
	tag, err := r.db.Exec(ctx, `UPDATE tasks SET title = $1, description = $2, status = $3, due_date = $4,
assignee = $5, updated_at = NOW() WHERE id = $6`, t.Title, t.Description, t.Status, t.DueDate, t.Assignee, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) SetTaskStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return affected(tag.RowsAffected(), err)
}

func (r *repository) DeleteTask(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return affected(tag.RowsAffected(), err)
}

func affected(rows int64, err error) error {
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return shared.ErrInUse
		}
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanStage(row pgx.Row) (Stage, error) {
	var s Stage
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Position, &s.PlannedStart, &s.PlannedEnd, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanSubStage(row pgx.Row) (SubStage, error) {
	var s SubStage
	err := row.Scan(&s.ID, &s.StageID, &s.Name, &s.Position, &s.StoredProgress, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.SubStageID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.Assignee, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
