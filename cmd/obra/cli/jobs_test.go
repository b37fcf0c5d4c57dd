package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-dashboard/obra/jobs"
)

func TestTask(t *testing.T) {
	task, err := Task(jobs.TaskFinanceWarmup)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskFinanceWarmup, task.Type())

	task, err = Task(jobs.TaskMaintenanceCleanup)
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskMaintenanceCleanup, task.Type())

	_, err = Task(jobs.TaskEmailIngest)
	assert.Error(t, err)
}

func TestWriteStats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStats(&buf, QueueStats{Queue: "default", Pending: 3, Retry: 1}))
	assert.Contains(t, buf.String(), "PENDING")
	assert.Regexp(t, `default\s+3\s+0\s+0\s+1\s+0`, buf.String())
}

func TestRunJobsUsage(t *testing.T) {
	err := RunJobs(context.Background(), asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, nil, &bytes.Buffer{})
	assert.Error(t, err)
	err = RunJobs(context.Background(), asynq.RedisClientOpt{Addr: "127.0.0.1:0"}, []string{"nope"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown command")
}
