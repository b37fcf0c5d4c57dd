package stages

import (
	"context"
	"sort"

	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	stages map[int64]Stage
	subs   map[int64]SubStage
	tasks  map[int64]Task
	inUse  map[int64]bool
	nextID int64
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stages: map[int64]Stage{},
		subs:   map[int64]SubStage{},
		tasks:  map[int64]Task{},
		inUse:  map[int64]bool{},
	}
}

func (m *memoryRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryRepo) tree() []Stage {
	stages := make([]Stage, 0, len(m.stages))
	for _, s := range m.stages {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].Position < stages[j].Position })
	subs := make([]SubStage, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	tasks := make([]Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	assemble(stages, subs, tasks)
	return stages
}

func (m *memoryRepo) ListStages(context.Context) ([]Stage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tree(), nil
}

func (m *memoryRepo) GetStage(_ context.Context, id int64) (Stage, error) {
	for _, s := range m.tree() {
		if s.ID == id {
			return s, nil
		}
	}
	return Stage{}, shared.ErrNotFound
}

func (m *memoryRepo) CreateStage(_ context.Context, s Stage) (Stage, error) {
	s.ID = m.id()
	m.stages[s.ID] = s
	return s, nil
}

func (m *memoryRepo) UpdateStage(_ context.Context, id int64, s Stage) error {
	if _, ok := m.stages[id]; !ok {
		return shared.ErrNotFound
	}
	s.ID = id
	m.stages[id] = s
	return nil
}

func (m *memoryRepo) DeleteStage(_ context.Context, id int64) error {
	if _, ok := m.stages[id]; !ok {
		return shared.ErrNotFound
	}
	if m.inUse[id] {
		return shared.ErrInUse
	}
	delete(m.stages, id)
	return nil
}

func (m *memoryRepo) GetSubStage(_ context.Context, id int64) (SubStage, error) {
	s, ok := m.subs[id]
	if !ok {
		return SubStage{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) CreateSubStage(_ context.Context, s SubStage) (SubStage, error) {
	if _, ok := m.stages[s.StageID]; !ok {
		return SubStage{}, shared.ErrNotFound
	}
	s.ID = m.id()
	m.subs[s.ID] = s
	return s, nil
}

func (m *memoryRepo) UpdateSubStage(_ context.Context, id int64, s SubStage) error {
	if _, ok := m.subs[id]; !ok {
		return shared.ErrNotFound
	}
	s.ID = id
	m.subs[id] = s
	return nil
}

func (m *memoryRepo) SetSubStageProgress(_ context.Context, id int64, progress *int) error {
	s, ok := m.subs[id]
	if !ok {
		return shared.ErrNotFound
	}
	s.StoredProgress = progress
	m.subs[id] = s
	return nil
}

func (m *memoryRepo) DeleteSubStage(_ context.Context, id int64) error {
	if _, ok := m.subs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *memoryRepo) GetTask(_ context.Context, id int64) (Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, shared.ErrNotFound
	}
	return t, nil
}

func (m *memoryRepo) CreateTask(_ context.Context, t Task) (Task, error) {
	if _, ok := m.subs[t.SubStageID]; !ok {
		return Task{}, shared.ErrNotFound
	}
	t.ID = m.id()
	m.tasks[t.ID] = t
	return t, nil
}

func (m *memoryRepo) UpdateTask(_ context.Context, id int64, t Task) error {
	if _, ok := m.tasks[id]; !ok {
		return shared.ErrNotFound
	}
	t.ID = id
	m.tasks[id] = t
	return nil
}

func (m *memoryRepo) SetTaskStatus(_ context.Context, id int64, status string) error {
	t, ok := m.tasks[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	m.tasks[id] = t
	return nil
}

func (m *memoryRepo) DeleteTask(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// seedTree inserts stage 1 "Fundação" with sub-stage 2 and tasks 3..5.
func seedTree(m *memoryRepo) {
	m.stages[1] = Stage{ID: 1, Name: "Fundação", Position: 1, Status: StatusInProgress}
	m.subs[2] = SubStage{ID: 2, StageID: 1, Name: "Sapatas", Status: StatusInProgress}
	m.tasks[3] = Task{ID: 3, SubStageID: 2, Title: "Escavação", Status: StatusCompleted}
	m.tasks[4] = Task{ID: 4, SubStageID: 2, Title: "Armação", Status: StatusPending}
	m.tasks[5] = Task{ID: 5, SubStageID: 2, Title: "Concretagem", Status: StatusPending}
	m.nextID = 5
}
