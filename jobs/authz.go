package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	jobmetrics "github.com/ChandrashakerVarma/LMS-sub000/internal/jobs"
)

// Verifier reports catalog drift without writing.
type Verifier interface {
	Verify(ctx context.Context) (bootstrap.Report, error)
}

// Reseeder applies the canonical catalog.
type Reseeder interface {
	Run(ctx context.Context) (bootstrap.Report, error)
}

// AuthzJobs runs the catalog maintenance tasks.
type AuthzJobs struct {
	verifier Verifier
	seeder   Reseeder
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
}

// NewAuthzJobs wires dependencies for the drift check and reseed handlers.
// seeder must run in idempotent mode; a strict seeder would refuse the very
// drift the reseed is meant to repair.
func NewAuthzJobs(verifier Verifier, seeder Reseeder, metrics *jobmetrics.Metrics, logger *slog.Logger) *AuthzJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthzJobs{verifier: verifier, seeder: seeder, metrics: metrics, logger: logger}
}

// Handlers returns the task registrations for the worker.
func (j *AuthzJobs) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskDriftCheck, Handler: j.HandleDriftCheck},
		{Type: TaskReseed, Handler: j.HandleReseed},
	}
}

// HandleDriftCheck records drift findings. Drift is reported, not failed:
// retrying would not change the outcome.
func (j *AuthzJobs) HandleDriftCheck(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.verifier == nil {
		return errors.New("drift check: handler not configured")
	}
	tracker := j.metrics.Track("authz_drift_check")
	defer func() { err = tracker.End(err) }()

	report, err := j.verifier.Verify(ctx)
	if err != nil {
		j.logger.Error("drift check failed", slog.Any("error", err))
		return err
	}
	if report.Drift {
		j.metrics.AddDrift(jobmetrics.DriftHash, 1)
	}
	j.metrics.AddDrift(jobmetrics.DriftMissingMenus, len(report.MissingMenus))
	if !report.Drift && len(report.MissingMenus) == 0 {
		j.logger.Debug("catalog matches compiled hash", slog.String("hash", report.CompiledHash))
		return nil
	}
	j.logger.Warn("catalog drift detected",
		slog.Bool("hash_mismatch", report.Drift),
		slog.Bool("healthy", report.Healthy()),
		slog.String("stored_hash", report.StoredHash),
		slog.String("compiled_hash", report.CompiledHash),
		slog.Any("missing_menus", report.MissingMenus))
	return nil
}

// HandleReseed runs the seeder once.
func (j *AuthzJobs) HandleReseed(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.seeder == nil {
		return errors.New("reseed: handler not configured")
	}
	var payload ReseedPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.metrics.Track("authz_reseed")
	defer func() { err = tracker.End(err) }()

	logger := j.logger.With(slog.String("requested_by", payload.RequestedBy), slog.String("reason", payload.Reason))
	report, err := j.seeder.Run(ctx)
	if err != nil {
		logger.Error("reseed failed", slog.Any("error", err))
		return err
	}
	logger.Info("reseed completed",
		slog.Int("roles_created", report.RolesCreated),
		slog.Int("menus_created", report.MenusCreated),
		slog.Int("rights_changed", report.RightsChanged),
		slog.Bool("hash_changed", report.HashChanged))
	return nil
}
