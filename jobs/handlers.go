package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praetor-auth/praetor/internal/auth"
	"github.com/praetor-auth/praetor/internal/shared"
)

// Handlers carries the dependencies job handlers need.
type Handlers struct {
	Repo   auth.Repository
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// HandleForcedSignOut records the forced sign-out in the audit trail and
// removes stale session rows for the account. The session itself was
// already torn down by the manager; this is the best-effort tail.
func (h Handlers) HandleForcedSignOut(ctx context.Context, t *asynq.Task) error {
	var payload ForcedSignOutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.Audit != nil {
		if err := h.Audit.Record(ctx, shared.AuditLog{
			ActorUID: payload.UID,
			Action:   shared.AuditActionForcedSignOut,
			Entity:   "user",
			EntityID: payload.UID,
			Meta:     map[string]any{"reason": payload.Reason},
			At:       payload.OccurredAt,
		}); err != nil {
			return err
		}
	}
	h.Logger.Info("forced sign-out cleanup done",
		slog.String("uid", payload.UID), slog.String("reason", payload.Reason))
	return nil
}

// HandleSessionSweep deletes session records whose expiry has passed.
func (h Handlers) HandleSessionSweep(ctx context.Context, t *asynq.Task) error {
	var payload SessionSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	removed, err := h.Repo.SweepExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if removed > 0 {
		h.Logger.Info("session sweep removed expired records", slog.Int64("count", removed))
	}
	return nil
}
