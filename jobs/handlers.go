package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/obra-dashboard/obra/internal/emails"
	jobmetrics "github.com/obra-dashboard/obra/internal/jobs"
	"github.com/obra-dashboard/obra/internal/platform/mail"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Ingester stores parsed inbound e-mails.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte) (emails.Email, bool, error)
}

// Warmer rebuilds a cached read model.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// SessionPurger removes expired login sessions.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// KeyCleaner removes idempotency keys older than a cutoff.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Jobs holds the task handlers run by the worker.
type Jobs struct {
	Ingester Ingester
	Mailer   mail.Sender
	Finance  Warmer
	Sessions SessionPurger
	Keys     KeyCleaner
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// Handlers lists the task handlers for NewWorker.
func (j *Jobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskEmailIngest, Handler: j.HandleEmailIngest},
		{Type: TaskSendEmail, Handler: j.HandleSendEmail},
		{Type: TaskFinanceWarmup, Handler: j.HandleFinanceWarmup},
		{Type: TaskMaintenanceCleanup, Handler: j.HandleCleanup},
	}
}

// HandleEmailIngest parses and stores an inbound message. Malformed
// messages are dropped without retry.
func (j *Jobs) HandleEmailIngest(ctx context.Context, t *asynq.Task) (err error) {
	var payload EmailIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if j.Ingester == nil {
		return errors.New("email ingest: handler not configured")
	}
	tracker := j.metrics().Track(TaskEmailIngest)
	defer func() { err = tracker.End(err) }()

	logger := j.logger(TaskEmailIngest).With(slog.String("inbound_id", payload.ID))
	e, created, err := j.Ingester.Ingest(ctx, payload.Raw)
	switch {
	case errors.Is(err, emails.ErrMalformed):
		j.metrics().CountEmail("rejected")
		logger.Warn("drop malformed email", slog.Any("error", err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	case err != nil:
		logger.Error("ingest email", slog.Any("error", err))
		return err
	case !created:
		j.metrics().CountEmail("duplicate")
		logger.Info("duplicate email ignored", slog.String("message_id", e.MessageID))
	default:
		j.metrics().CountEmail("stored")
		logger.Info("email stored", slog.Int64("email_id", e.ID), slog.String("sender", e.Sender))
	}
	return nil
}

// HandleSendEmail delivers one notification e-mail.
func (j *Jobs) HandleSendEmail(ctx context.Context, t *asynq.Task) (err error) {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if j.Mailer == nil {
		return errors.New("send email: mailer not configured")
	}
	tracker := j.metrics().Track(TaskSendEmail)
	defer func() { err = tracker.End(err) }()

	err = j.Mailer.Send(ctx, mail.Message{To: payload.To, Subject: payload.Subject, Body: payload.Body})
	if errors.Is(err, mail.ErrNoRecipient) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		j.logger(TaskSendEmail).Warn("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	j.logger(TaskSendEmail).Info("email sent", slog.String("to", payload.To))
	return nil
}

// HandleFinanceWarmup rebuilds the cached finance overview.
func (j *Jobs) HandleFinanceWarmup(ctx context.Context, t *asynq.Task) (err error) {
	var payload FinanceWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if j.Finance == nil {
		return nil
	}
	tracker := j.metrics().Track(TaskFinanceWarmup)
	defer func() { err = tracker.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	start := j.now()
	if err = j.Finance.Warmup(ctx); err != nil {
		j.logger(TaskFinanceWarmup).Error("finance warmup", slog.Int64("version", payload.Version), slog.Any("error", err))
		return err
	}
	j.logger(TaskFinanceWarmup).Info("finance warmup done", slog.Int64("version", payload.Version), slog.Duration("duration", j.now().Sub(start)))
	return nil
}

// HandleCleanup purges expired sessions and stale idempotency keys. Both
// steps run even when the first fails.
func (j *Jobs) HandleCleanup(ctx context.Context, t *asynq.Task) (err error) {
	var payload CleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	if payload.IdempotencyTTL <= 0 {
		payload.IdempotencyTTL = DefaultIdempotencyTTL
	}
	tracker := j.metrics().Track(TaskMaintenanceCleanup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger(TaskMaintenanceCleanup)
	var errs []error
	if j.Sessions != nil {
		n, err := j.Sessions.PurgeExpired(ctx, j.now())
		if err != nil {
			errs = append(errs, fmt.Errorf("purge sessions: %w", err))
		} else {
			logger.Info("expired sessions purged", slog.Int64("rows", n))
		}
	}
	if j.Keys != nil {
		n, err := j.Keys.Cleanup(ctx, payload.IdempotencyTTL)
		if err != nil {
			errs = append(errs, fmt.Errorf("cleanup idempotency keys: %w", err))
		} else {
			logger.Info("idempotency keys removed", slog.Int64("rows", n))
		}
	}
	if err := errors.Join(errs...); err != nil {
		logger.Error("cleanup", slog.Any("error", err))
		return err
	}
	return nil
}

func (j *Jobs) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *Jobs) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *Jobs) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
