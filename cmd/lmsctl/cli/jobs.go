package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

// Enqueuer submits maintenance tasks.
type Enqueuer interface {
	EnqueueDriftCheck(ctx context.Context) (*asynq.TaskInfo, error)
	EnqueueReseed(ctx context.Context, payload jobs.ReseedPayload) (*asynq.TaskInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    Enqueuer
	inspector jobs.QueueInspector
}

// NewJobsCLI initialises the CLI helpers.
func NewJobsCLI(client Enqueuer, inspector jobs.QueueInspector) *JobsCLI {
	return &JobsCLI{client: client, inspector: inspector}
}

// Trigger enqueues a supported job by name ("drift_check" or "reseed", with or
// without the "authz:" prefix).
func (c *JobsCLI) Trigger(ctx context.Context, name, requestedBy string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskDriftCheck, "drift_check":
		return c.client.EnqueueDriftCheck(ctx)
	case jobs.TaskReseed, "reseed":
		return c.client.EnqueueReseed(ctx, jobs.ReseedPayload{RequestedBy: requestedBy, Reason: "manual"})
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (jobs.QueueHealth, error) {
	if c == nil || c.inspector == nil {
		return jobs.QueueHealth{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return jobs.QueueHealth{}, err
	}
	stats := jobs.QueueHealth{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}
