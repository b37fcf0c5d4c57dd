package notifications

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/obra-dashboard/obra/internal/shared"
)

type readKey struct{ id, user int64 }

type memoryRepo struct {
	rows       map[int64]Notification
	reads      map[readKey]time.Time
	recipients map[int64]string
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{rows: map[int64]Notification{}, reads: map[readKey]time.Time{}, recipients: map[int64]string{}}
}

func (m *memoryRepo) visible(n Notification, userID int64) bool {
	return n.UserID == nil || *n.UserID == userID
}

func (m *memoryRepo) ListForUser(_ context.Context, userID int64, limit int) ([]Notification, error) {
	var out []Notification
	for _, n := range m.rows {
		if !m.visible(n, userID) {
			continue
		}
		if at, ok := m.reads[readKey{n.ID, userID}]; ok {
			at := at
			n.ReadAt = &at
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) UnreadCount(ctx context.Context, userID int64) (int, error) {
	items, _ := m.ListForUser(ctx, userID, len(m.rows)+1)
	count := 0
	for _, n := range items {
		if n.Unread() {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepo) Create(_ context.Context, n Notification) (Notification, error) {
	m.nextID++
	n.ID = m.nextID
	n.CreatedAt = time.Now()
	m.rows[n.ID] = n
	return n, nil
}

func (m *memoryRepo) MarkRead(_ context.Context, id, userID int64) error {
	n, ok := m.rows[id]
	if !ok || !m.visible(n, userID) {
		return shared.ErrNotFound
	}
	if _, done := m.reads[readKey{id, userID}]; !done {
		m.reads[readKey{id, userID}] = time.Now()
	}
	return nil
}

func (m *memoryRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	var n int64
	for id, row := range m.rows {
		if !m.visible(row, userID) {
			continue
		}
		if _, done := m.reads[readKey{id, userID}]; !done {
			m.reads[readKey{id, userID}] = time.Now()
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) Recipients(_ context.Context, userID *int64) ([]string, error) {
	if userID != nil {
		addr, ok := m.recipients[*userID]
		if !ok {
			return nil, nil
		}
		return []string{addr}, nil
	}
	ids := make([]int64, 0, len(m.recipients))
	for id := range m.recipients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.recipients[id])
	}
	return out, nil
}

type sentMail struct{ to, subject, body string }

type recordingQueue struct {
	sent []sentMail
	err  error
}

func (q *recordingQueue) EnqueueMail(_ context.Context, to, subject, body string) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, sentMail{to, subject, body})
	return nil
}

var errQueueDown = errors.New("queue down")
