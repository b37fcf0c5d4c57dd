// Package cli holds operator subcommands of the obra binary.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hibiken/asynq"

	"github.com/obra-dashboard/obra/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers for the queue behind opt.
func NewJobsCLI(opt asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: asynq.NewClient(opt), inspector: asynq.NewInspector(opt)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// Task builds the task for a job that can be triggered by hand.
func Task(name string) (*asynq.Task, error) {
	switch name {
	case jobs.TaskFinanceWarmup:
		return jobs.NewFinanceWarmupTask(0)
	case jobs.TaskMaintenanceCleanup:
		return jobs.NewCleanupTask(jobs.DefaultIdempotencyTTL)
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// Trigger enqueues a supported job by name with default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	task, err := Task(name)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// RunJobs executes "jobs trigger <name>" or "jobs stats".
func RunJobs(ctx context.Context, opt asynq.RedisClientOpt, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: obra jobs trigger <finance:warmup|maintenance:cleanup> | obra jobs stats")
	}
	c := NewJobsCLI(opt)
	defer func() { _ = c.Close() }()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			return errors.New("usage: obra jobs trigger <name>")
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "enqueued %s id=%s\n", info.Type, info.ID)
		return err
	case "stats":
		stats, err := c.InspectQueue()
		if err != nil {
			return err
		}
		return writeStats(out, stats)
	default:
		return fmt.Errorf("jobs cli: unknown command %q", args[0])
	}
}

func writeStats(out io.Writer, s QueueStats) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", s.Queue, s.Pending, s.Active, s.Scheduled, s.Retry, s.Archived)
	return tw.Flush()
}
