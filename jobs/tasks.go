package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskForcedSignOut finishes cleanup after a guard forced a sign-out.
	TaskForcedSignOut = "auth:forced_signout"
	// TaskSessionSweep prunes expired session records.
	TaskSessionSweep = "session:sweep"
)

// ForcedSignOutPayload identifies the account that was signed out and why.
type ForcedSignOutPayload struct {
	UID        string    `json:"uid"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewForcedSignOutTask constructs an Asynq task for forced sign-out cleanup.
func NewForcedSignOutTask(uid, reason string) (*asynq.Task, error) {
	body, err := json.Marshal(ForcedSignOutPayload{UID: uid, Reason: reason, OccurredAt: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskForcedSignOut, body, asynq.Queue(QueueDefault)), nil
}

// SessionSweepPayload carries scheduling metadata.
type SessionSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewSessionSweepTask constructs an Asynq task for the session sweep.
func NewSessionSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SessionSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, body, asynq.Queue(QueueDefault)), nil
}
