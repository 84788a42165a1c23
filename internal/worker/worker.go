// Package worker processes dequeued optimization solve requests. A Worker is
// constructed per dispatch with its collaborators injected; it owns no global
// state.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/shiftwise-dev/workforce/backend/internal/repository"
	"github.com/shiftwise-dev/workforce/backend/internal/solver"
)

// JobStore is the slice of the repository the worker mutates jobs through.
// The claim is a compare-and-swap on status; the finish and the release are
// guarded by the version observed at claim time.
type JobStore interface {
	GetOptimizationByID(id int64) (*domain.Optimization, error)
	ClaimOptimization(id int64) (*domain.Optimization, error)
	FinishOptimization(o *domain.Optimization, assignments []domain.TourScheduleAssignment, unsatisfiedPeriodIDs []int64) error
	ReleaseOptimization(o *domain.Optimization) error
}

// Roster provides the read-only collaborators the solver snapshot is built
// from.
type Roster interface {
	GetTourScheduleByID(id int64) (*domain.TourSchedule, error)
	GetHumanResourcesByEnvironmentID(environmentID int64) ([]*domain.HumanResource, error)
	GetLeaveTakesByEnvironmentAndRange(environmentID int64, from, to time.Time) ([]*domain.LeaveTake, error)
}

// Notifier announces terminal job states. Notification failures never affect
// the job outcome.
type Notifier interface {
	OptimizationFinished(ctx context.Context, to string, data domain.OptimizationFinishedMailData) error
}

// ErrTransient marks infrastructure failures the queue should redeliver.
var ErrTransient = errors.New("transient failure")

const (
	finishAttempts   = 3
	finishRetryDelay = 200 * time.Millisecond
)

type Worker struct {
	store    JobStore
	roster   Roster
	notifier Notifier
	logger   *slog.Logger
}

func New(store JobStore, roster Roster, notifier Notifier, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		roster:   roster,
		notifier: notifier,
		logger:   logger,
	}
}

// Process runs one solve request end to end. A nil return means the message
// is done (successfully or terminally failed) and must be acked; an
// ErrTransient return means the message should be redelivered. Before asking
// for a redelivery, a held claim is released back to Pending so the retried
// message can claim the job again.
func (w *Worker) Process(ctx context.Context, msg domain.SolveMessage) (err error) {
	optimizationID := msg.Parameters.OptimizationID
	logger := w.logger.With(slog.Int64("optimization_id", optimizationID))

	// a panicking solve must still leave the job in a terminal state
	var job *domain.Optimization
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while processing optimization", "panic", rec)
			if job != nil {
				if _, err = w.finish(logger, job, domain.OptimizationFailed, fmt.Sprintf("panic: %v", rec), nil, nil); err != nil {
					w.releaseClaim(logger, job)
				}
			}
		}
	}()

	if _, err := w.store.GetOptimizationByID(optimizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// nothing to update, nothing to retry
			logger.Error("optimization not found, abandoning job")
			return nil
		}
		return fmt.Errorf("%w: loading optimization: %v", ErrTransient, err)
	}

	job, err = w.store.ClaimOptimization(optimizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotClaimable) {
			// another worker owns it, or it already reached a terminal state
			logger.Info("optimization not pending, abandoning job")
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			logger.Error("optimization disappeared before claim, abandoning job")
			return nil
		}
		return fmt.Errorf("%w: claiming optimization: %v", ErrTransient, err)
	}

	logger.Info("optimization claimed", "tour_schedule_id", job.TourScheduleID)

	in, err := w.buildSnapshot(job, msg.Parameters)
	if err != nil {
		if errors.Is(err, ErrTransient) {
			// hand the claim back so the redelivery can run the solve again
			w.releaseClaim(logger, job)
			return err
		}
		if ferr := w.finishAndNotify(ctx, logger, msg, job, domain.OptimizationFailed, err.Error(), nil, nil); ferr != nil {
			w.releaseClaim(logger, job)
			return ferr
		}
		return nil
	}

	s, err := solver.New(in)
	if err != nil {
		// precondition violation: terminal failure, no retry
		if ferr := w.finishAndNotify(ctx, logger, msg, job, domain.OptimizationFailed, err.Error(), nil, nil); ferr != nil {
			w.releaseClaim(logger, job)
			return ferr
		}
		return nil
	}

	solution := s.Solve()
	logger.Info("solve finished",
		"feasible", solution.Feasible,
		"assignments", len(solution.Assignments),
		"unsatisfied_periods", len(solution.UnsatisfiedPeriodIDs),
	)

	// infeasible input still completes the job; the unsatisfied periods are
	// recorded on the row and partial assignments are kept
	if ferr := w.finishAndNotify(ctx, logger, msg, job, domain.OptimizationCompleted, "", solution.Assignments, solution.UnsatisfiedPeriodIDs); ferr != nil {
		w.releaseClaim(logger, job)
		return ferr
	}
	return nil
}

func (w *Worker) buildSnapshot(job *domain.Optimization, params domain.OptimizationParameters) (solver.Input, error) {
	schedule, err := w.roster.GetTourScheduleByID(job.TourScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return solver.Input{}, fmt.Errorf("tour schedule %d not found", job.TourScheduleID)
		}
		return solver.Input{}, fmt.Errorf("%w: loading tour schedule: %v", ErrTransient, err)
	}

	resources, err := w.roster.GetHumanResourcesByEnvironmentID(job.EnvironmentID)
	if err != nil {
		return solver.Input{}, fmt.Errorf("%w: loading human resources: %v", ErrTransient, err)
	}

	leaves, err := w.roster.GetLeaveTakesByEnvironmentAndRange(job.EnvironmentID, job.StartDate, job.EndDate)
	if err != nil {
		return solver.Input{}, fmt.Errorf("%w: loading leave takes: %v", ErrTransient, err)
	}

	// only periods inside the job's date range are solved
	periods := make([]*domain.DemandPeriod, 0, len(schedule.Periods))
	for i := range schedule.Periods {
		p := &schedule.Periods[i]
		if p.StartTime.Before(job.StartDate) || p.EndTime.After(job.EndDate) {
			continue
		}
		periods = append(periods, p)
	}

	return solver.Input{
		Parameters: params,
		Resources:  resources,
		Periods:    periods,
		Leaves:     leaves,
		StartDate:  job.StartDate,
		EndDate:    job.EndDate,
	}, nil
}

func (w *Worker) finishAndNotify(
	ctx context.Context,
	logger *slog.Logger,
	msg domain.SolveMessage,
	job *domain.Optimization,
	status domain.OptimizationStatus,
	errorMessage string,
	assignments []domain.TourScheduleAssignment,
	unsatisfiedPeriodIDs []int64,
) error {
	persisted, err := w.finish(logger, job, status, errorMessage, assignments, unsatisfiedPeriodIDs)
	if err != nil {
		return err
	}

	// a discarded result is not announced
	if persisted && w.notifier != nil && msg.NotifyEmail != "" {
		data := domain.OptimizationFinishedMailData{
			OptimizationID:  job.ID,
			TourScheduleID:  job.TourScheduleID,
			Status:          string(job.Status),
			AssignmentCount: len(assignments),
			ErrorMessage:    errorMessage,
		}
		if err := w.notifier.OptimizationFinished(ctx, msg.NotifyEmail, data); err != nil {
			logger.Error("failed to publish notification", "error", err)
		}
	}

	return nil
}

// finish writes the terminal status, retrying transient store failures
// in-process. An ownership loss (the job was reset while the solve ran)
// discards the result instead of overwriting the freshly reset row; the
// first return value reports whether the write stuck.
func (w *Worker) finish(
	logger *slog.Logger,
	job *domain.Optimization,
	status domain.OptimizationStatus,
	errorMessage string,
	assignments []domain.TourScheduleAssignment,
	unsatisfiedPeriodIDs []int64,
) (bool, error) {
	job.Status = status
	job.ErrorMessage = nil
	if errorMessage != "" {
		job.ErrorMessage = &errorMessage
	}

	var err error
	for attempt := 1; attempt <= finishAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(finishRetryDelay)
		}
		err = w.store.FinishOptimization(job, assignments, unsatisfiedPeriodIDs)
		switch {
		case err == nil:
			logger.Info("optimization finished", "status", status)
			return true, nil
		case errors.Is(err, repository.ErrOwnershipLost):
			logger.Warn("optimization was reset while processing, discarding result", "status", status)
			return false, nil
		}
		logger.Warn("terminal write failed", "attempt", attempt, "error", err)
	}
	return false, fmt.Errorf("%w: persisting terminal status: %v", ErrTransient, err)
}

// releaseClaim puts a claimed job back to Pending so the redelivered message
// can claim it again; without this a transient finish failure would leave
// the row InProgress with no owner.
func (w *Worker) releaseClaim(logger *slog.Logger, job *domain.Optimization) {
	err := w.store.ReleaseOptimization(job)
	switch {
	case err == nil:
		logger.Info("claim released, awaiting redelivery")
	case errors.Is(err, repository.ErrOwnershipLost):
		logger.Warn("claim already superseded, nothing to release")
	default:
		logger.Error("failed to release claimed optimization", "error", err)
	}
}
