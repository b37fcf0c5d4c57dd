package emails

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

var sampleMessage = rawMessage(
	"From: Loja <loja@example.com>",
	"Subject: NF 555 - Tintas",
	"Message-ID: <nf555@example.com>",
	"",
	"Valor R$ 830,00",
)

func TestIngestStoresAndNotifiesOnce(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, notifier, nil)
	ctx := context.Background()

	e, created, err := svc.Ingest(ctx, sampleMessage)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, StatusNew, e.Status)
	assert.Equal(t, "loja@example.com", e.Sender)
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, "Novo e-mail de loja@example.com", notifier.messages[0].Title)
	assert.Equal(t, "/emails/1", notifier.messages[0].Link)
	assert.Nil(t, notifier.messages[0].UserID)

	again, created, err := svc.Ingest(ctx, sampleMessage)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, e.ID, again.ID)
	assert.Len(t, repo.rows, 1)
	assert.Len(t, notifier.messages, 1)
}

func TestIngestKeepsEmailWhenNotifyFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &recordingNotifier{err: errDown}, nil)

	_, created, err := svc.Ingest(context.Background(), sampleMessage)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.rows, 1)
}

func TestIngestMalformed(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	_, _, err := svc.Ingest(context.Background(), []byte("garbage"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestStatusTransitionsAndLink(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	e, _, err := svc.Ingest(ctx, sampleMessage)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, e.ID, StatusIgnored))
	assert.Equal(t, StatusIgnored, repo.rows[e.ID].Status)
	assert.NotNil(t, repo.rows[e.ID].ProcessedAt)

	err = svc.SetStatus(ctx, e.ID, "archived")
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.LinkExpense(ctx, e.ID, 77))
	assert.Equal(t, StatusProcessed, repo.rows[e.ID].Status)
	assert.Equal(t, int64(77), *repo.rows[e.ID].ExpenseID)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestExpenseFormURL(t *testing.T) {
	u := ExpenseFormURL(Email{ID: 9, Subject: "NF 123 & cia"})
	assert.Equal(t, "/gastos/new?descricao=NF+123+%26+cia&email_id=9", u)
}
