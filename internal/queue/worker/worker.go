package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuktifest/yukti-backend/internal/domain/job"
	"github.com/yuktifest/yukti-backend/internal/domain/registration"
	"github.com/yuktifest/yukti-backend/internal/jobs"
	"github.com/yuktifest/yukti-backend/internal/notifications"
	"github.com/yuktifest/yukti-backend/internal/observability"
)

type JobStore interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
}

type RegistrationStore interface {
	GetByID(ctx context.Context, id string) (registration.Registration, error)
}

type Exporter interface {
	Append(ctx context.Context, reg registration.Registration) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	ShutdownGrace time.Duration
}

type Deps struct {
	Jobs          JobStore
	Registrations RegistrationStore
	Exporter      Exporter
	Notifier      notifications.Notifier
	Prom          *observability.Prom
	Log           *slog.Logger
}

// Worker drains the jobs table: claim, execute, mark done or park for
// retry. Several workers can run against the same table; SKIP LOCKED
// in the claim keeps them from stepping on each other.
type Worker struct {
	cfg  Config
	deps Deps
}

// permanent wraps errors that retrying cannot fix (bad payload,
// registration gone). The job is failed immediately instead of
// burning through its attempt budget.
type permanent struct {
	err error
}

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

func New(cfg Config, deps Deps) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "worker"
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}

	return &Worker{cfg: cfg, deps: deps}
}

// Run polls until ctx is cancelled. An in-flight job gets the shutdown
// grace period to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.deps.Log.Info("worker.started",
		"worker_id", w.cfg.WorkerID,
		"poll_interval", w.cfg.PollInterval.String(),
	)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.deps.Log.Info("worker.stopping", "worker_id", w.cfg.WorkerID)
			return ctx.Err()
		case <-ticker.C:
		}

		// drain everything that is due before sleeping again
		for {
			processed, err := w.ProcessOne(ctx)

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}

				w.deps.Log.Error("worker.claim_failed", "error", err)
				break
			}

			if !processed {
				break
			}
		}
	}
}

// ProcessOne claims and executes a single job. It reports whether a
// job was available.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.deps.Jobs.ClaimNext(ctx, w.cfg.WorkerID)

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	start := time.Now()

	// the claim is already durable; give the job its own deadline so a
	// cancelled poll loop still lets it finish
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.ShutdownGrace)
	defer cancel()

	execErr := w.execute(jobCtx, j)
	took := time.Since(start)

	if execErr == nil {
		if err := w.deps.Jobs.MarkDone(jobCtx, j.ID); err != nil {
			w.deps.Log.Error("worker.mark_done_failed", "job_id", j.ID, "error", err)
		}

		w.record(j.Type, "done", took)

		w.deps.Log.Info("worker.job_done",
			"job_id", j.ID,
			"job_type", j.Type,
			"attempt", j.Attempts+1,
			"took_ms", took.Milliseconds(),
		)
		return true, nil
	}

	w.handleFailure(jobCtx, j, execErr, took)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	t := jobs.JobType(j.Type)

	decoded, err := jobs.DecodePayload(t, j.Payload)

	if err != nil {
		return permanent{err: err}
	}

	switch t {
	case jobs.JobExportRegistration:
		p := decoded.(jobs.ExportRegistrationPayload)

		reg, err := w.deps.Registrations.GetByID(ctx, p.RegistrationID)

		if err != nil {
			if errors.Is(err, registration.ErrNotFound) {
				return permanent{err: err}
			}
			return err
		}

		return w.deps.Exporter.Append(ctx, reg)

	case jobs.JobSendConfirmation:
		p := decoded.(jobs.SendConfirmationPayload)

		reg, err := w.deps.Registrations.GetByID(ctx, p.RegistrationID)

		if err != nil {
			if errors.Is(err, registration.ErrNotFound) {
				return permanent{err: err}
			}
			return err
		}

		return w.deps.Notifier.SendRegistrationConfirmation(ctx, notifications.SendRegistrationConfirmationInput{
			Email:    reg.Email,
			Name:     reg.Name,
			Event:    reg.Event,
			UniqueID: reg.UniqueID,
		})

	default:
		return permanent{err: fmt.Errorf("%w: %s", jobs.ErrInvalidJobType, j.Type)}
	}
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error, took time.Duration) {
	attempt := j.Attempts + 1

	var perm permanent
	exhausted := attempt >= j.MaxAttempts

	if errors.As(execErr, &perm) || exhausted {
		if err := w.deps.Jobs.MarkFailed(ctx, j.ID, execErr.Error()); err != nil {
			w.deps.Log.Error("worker.mark_failed_failed", "job_id", j.ID, "error", err)
		}

		w.record(j.Type, "failed", took)

		w.deps.Log.Error("worker.job_failed",
			"job_id", j.ID,
			"job_type", j.Type,
			"attempt", attempt,
			"max_attempts", j.MaxAttempts,
			"permanent", errors.As(execErr, &perm),
			"error", execErr,
		)
		return
	}

	delay := nextBackoff(j.Attempts)
	runAt := time.Now().UTC().Add(delay)

	if err := w.deps.Jobs.Reschedule(ctx, j.ID, runAt, execErr.Error()); err != nil {
		w.deps.Log.Error("worker.reschedule_failed", "job_id", j.ID, "error", err)
	}

	w.record(j.Type, "retry", took)

	w.deps.Log.Warn("worker.job_retry",
		"job_id", j.ID,
		"job_type", j.Type,
		"attempt", attempt,
		"next_run_in", delay.String(),
		"error", execErr,
	)
}

func (w *Worker) record(jobType, result string, took time.Duration) {
	if w.deps.Prom != nil {
		w.deps.Prom.RecordJob(jobType, result, took)
	}
}
