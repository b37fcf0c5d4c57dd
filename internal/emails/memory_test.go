package emails

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/obra-dashboard/obra/internal/notifications"
	"github.com/obra-dashboard/obra/internal/shared"
)

type memoryRepo struct {
	rows   map[int64]Email
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Email{}}
}

func (m *memoryRepo) List(_ context.Context, f Filters) ([]Email, int, error) {
	var out []Email
	for _, e := range m.rows {
		if f.Status == "" || e.Status == f.Status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Email, error) {
	e, ok := m.rows[id]
	if !ok {
		return Email{}, shared.ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) Insert(_ context.Context, e Email) (Email, bool, error) {
	for _, existing := range m.rows {
		if existing.MessageID == e.MessageID {
			return existing, false, nil
		}
	}
	m.nextID++
	e.ID = m.nextID
	m.rows[e.ID] = e
	return e, true, nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id int64, status string, at time.Time) error {
	e, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.Status = status
	e.ProcessedAt = &at
	if status == StatusNew {
		e.ProcessedAt = nil
	}
	m.rows[id] = e
	return nil
}

func (m *memoryRepo) LinkExpense(_ context.Context, id, expenseID int64, at time.Time) error {
	e, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.Status = StatusProcessed
	e.ExpenseID = &expenseID
	e.ProcessedAt = &at
	m.rows[id] = e
	return nil
}

func (m *memoryRepo) CountByStatus(_ context.Context, status string) (int, error) {
	n := 0
	for _, e := range m.rows {
		if e.Status == status {
			n++
		}
	}
	return n, nil
}

type recordingNotifier struct {
	messages []notifications.Message
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notifications.Message) (notifications.Notification, error) {
	if n.err != nil {
		return notifications.Notification{}, n.err
	}
	n.messages = append(n.messages, msg)
	return notifications.Notification{ID: int64(len(n.messages)), Title: msg.Title}, nil
}

type recordingQueue struct {
	ids  []string
	raws [][]byte
	err  error
}

func (q *recordingQueue) EnqueueEmailIngest(_ context.Context, id string, raw []byte) error {
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	q.raws = append(q.raws, raw)
	return nil
}

var errDown = errors.New("down")
