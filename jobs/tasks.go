package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDriftCheck compares the stored catalog with the compiled one.
	TaskDriftCheck = "authz:drift_check"
	// TaskReseed re-applies the canonical catalog and baseline grants.
	TaskReseed = "authz:reseed"
)

// ReseedPayload identifies who asked for a reseed.
type ReseedPayload struct {
	RequestedBy string `json:"requested_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// NewDriftCheckTask constructs a drift check task. It carries no payload.
func NewDriftCheckTask() *asynq.Task {
	return asynq.NewTask(TaskDriftCheck, nil, asynq.MaxRetry(1))
}

// NewReseedTask constructs a reseed task.
func NewReseedTask(payload ReseedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReseed, data, asynq.MaxRetry(3)), nil
}
