package jobs

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	TaskEmailIngest        = "email:ingest"
	TaskSendEmail          = "mail:send"
	TaskFinanceWarmup      = "finance:warmup"
	TaskMaintenanceCleanup = "maintenance:cleanup"
)

// EmailIngestPayload carries a raw RFC 5322 message received by the inbound
// endpoint. ID is the identifier returned to the caller.
type EmailIngestPayload struct {
	ID  string `json:"id"`
	Raw []byte `json:"raw"`
}

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FinanceWarmupPayload names the cache version the warmup was requested for.
type FinanceWarmupPayload struct {
	Version int64 `json:"version"`
}

// CleanupPayload bounds how old idempotency keys must be to be removed.
type CleanupPayload struct {
	IdempotencyTTL time.Duration `json:"idempotency_ttl"`
}

// DefaultIdempotencyTTL is used when a cleanup task does not specify one.
const DefaultIdempotencyTTL = 7 * 24 * time.Hour

// NewEmailIngestTask builds an ingest task whose task id is the inbound id,
// so a retried HTTP delivery with the same id is not queued twice.
func NewEmailIngestTask(payload EmailIngestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailIngest, data, asynq.TaskID("email-ingest-"+payload.ID), asynq.MaxRetry(5)), nil
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSendEmail, data, asynq.MaxRetry(8)), nil
}

// NewFinanceWarmupTask builds a warmup task unique per cache version.
func NewFinanceWarmupTask(version int64) (*asynq.Task, error) {
	data, err := json.Marshal(FinanceWarmupPayload{Version: version})
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(2)}
	if version > 0 {
		opts = append(opts, asynq.TaskID("finance-warmup-"+strconv.FormatInt(version, 10)))
	}
	return asynq.NewTask(TaskFinanceWarmup, data, opts...), nil
}

func NewCleanupTask(idempotencyTTL time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{IdempotencyTTL: idempotencyTTL})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMaintenanceCleanup, data, asynq.MaxRetry(3)), nil
}
