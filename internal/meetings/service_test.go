package meetings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/internal/shared"
)

var refNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return refNow }
	return svc, repo
}

func TestScheduleSplitsUpcomingAndPast(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, m := range []Meeting{
		{Title: "Vistoria da laje", ScheduledAt: refNow.Add(48 * time.Hour)},
		{Title: "Kickoff", ScheduledAt: refNow.Add(-30 * 24 * time.Hour)},
		{Title: "Acabamentos", ScheduledAt: refNow.Add(2 * time.Hour)},
		{Title: "Fundação", ScheduledAt: refNow.Add(-24 * time.Hour)},
	} {
		_, err := svc.Create(ctx, m, 1)
		require.NoError(t, err)
	}

	schedule, err := svc.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, schedule.Upcoming, 2)
	assert.Equal(t, "Acabamentos", schedule.Upcoming[0].Title)
	require.Len(t, schedule.Past, 2)
	assert.Equal(t, "Fundação", schedule.Past[0].Title)

	next, err := svc.Upcoming(ctx, 1)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "Acabamentos", next[0].Title)
}

func TestCreateValidates(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), Meeting{Title: "  "}, 1)
	require.True(t, errors.Is(err, shared.ErrValidation))
	fields := shared.FormErrors(err)
	assert.Equal(t, fieldMessages["Title"], fields["title"])
	assert.Equal(t, fieldMessages["ScheduledAt"], fields["scheduled_at"])
	assert.Empty(t, repo.rows)
}

func TestCreateRecordsAuthor(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Create(context.Background(), Meeting{Title: " Reunião com arquiteta ", ScheduledAt: refNow}, 7)
	require.NoError(t, err)
	assert.Equal(t, "Reunião com arquiteta", m.Title)
	require.NotNil(t, m.CreatedBy)
	assert.Equal(t, int64(7), *m.CreatedBy)
}

func TestUpdateMissing(t *testing.T) {
	svc, _ := newTestService()
	err := svc.Update(context.Background(), 42, Meeting{Title: "X", ScheduledAt: refNow})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
