package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

func TestNotifyBroadcastWithEmail(t *testing.T) {
	repo := newMemoryRepo()
	repo.recipients[1] = "admin@obra.local"
	repo.recipients[2] = "edu@obra.local"
	queue := &recordingQueue{}
	svc := NewService(repo, queue, nil)

	n, err := svc.Notify(context.Background(), Message{Title: " Novo e-mail ", Body: "NF 123", Link: "/emails/4", Email: true})
	require.NoError(t, err)
	assert.Equal(t, "Novo e-mail", n.Title)
	assert.Nil(t, n.UserID)

	require.Len(t, queue.sent, 2)
	assert.Equal(t, "admin@obra.local", queue.sent[0].to)
	assert.Equal(t, "NF 123\n\n/emails/4", queue.sent[0].body)
}

func TestNotifyToOneUserWithoutEmail(t *testing.T) {
	repo := newMemoryRepo()
	repo.recipients[2] = "edu@obra.local"
	queue := &recordingQueue{}
	svc := NewService(repo, queue, nil)

	_, err := svc.Notify(context.Background(), Message{UserID: shared.Int64Ptr(2), Title: "Tarefa atrasada"})
	require.NoError(t, err)
	assert.Empty(t, queue.sent)
}

func TestNotifySurvivesQueueFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.recipients[1] = "admin@obra.local"
	svc := NewService(repo, &recordingQueue{err: errQueueDown}, nil)

	_, err := svc.Notify(context.Background(), Message{Title: "X", Email: true})
	require.NoError(t, err)
	assert.Len(t, repo.rows, 1)
}

func TestReadReceiptsArePerUser(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	broadcast, err := svc.Notify(ctx, Message{Title: "Para todos"})
	require.NoError(t, err)
	private, err := svc.Notify(ctx, Message{UserID: shared.Int64Ptr(1), Title: "Só admin"})
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = svc.UnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkRead(ctx, broadcast.ID, 1))
	count, _ = svc.UnreadCount(ctx, 1)
	assert.Equal(t, 1, count)
	count, _ = svc.UnreadCount(ctx, 2)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, svc.MarkRead(ctx, private.ID, 2), shared.ErrNotFound)

	marked, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)
	count, _ = svc.UnreadCount(ctx, 1)
	assert.Zero(t, count)
}
