package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

func (r *Repository) InsertOptimization(o *domain.Optimization) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO optimizations (tour_schedule_id, environment_id, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, version
	`

	return r.dbpool.QueryRowContext(ctx, query, o.TourScheduleID, o.EnvironmentID, o.StartDate, o.EndDate).
		Scan(&o.ID, &o.Status, &o.CreatedAt, &o.Version)
}

func (r *Repository) GetOptimizationByID(id int64) (*domain.Optimization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, tour_schedule_id, environment_id, start_date, end_date, status, error_message, created_at, version
		FROM optimizations
		WHERE id = $1
	`

	o := &domain.Optimization{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(
		&o.ID,
		&o.TourScheduleID,
		&o.EnvironmentID,
		&o.StartDate,
		&o.EndDate,
		&o.Status,
		&o.ErrorMessage,
		&o.CreatedAt,
		&o.Version,
	); err != nil {
		return nil, err
	}

	query = `
		SELECT demand_period_id
		FROM optimization_unsatisfied_periods
		WHERE optimization_id = $1
		ORDER BY demand_period_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var periodID int64
		if err := rows.Scan(&periodID); err != nil {
			return nil, err
		}
		o.UnsatisfiedPeriodIDs = append(o.UnsatisfiedPeriodIDs, periodID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *Repository) getOptimizations(query string, args ...any) ([]*domain.Optimization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	optimizations := make([]*domain.Optimization, 0)
	for rows.Next() {
		o := &domain.Optimization{}
		if err := rows.Scan(
			&o.ID,
			&o.TourScheduleID,
			&o.EnvironmentID,
			&o.StartDate,
			&o.EndDate,
			&o.Status,
			&o.ErrorMessage,
			&o.CreatedAt,
			&o.Version,
		); err != nil {
			return nil, err
		}
		optimizations = append(optimizations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return optimizations, nil
}

func (r *Repository) GetAllOptimizations() ([]*domain.Optimization, error) {
	query := `
		SELECT id, tour_schedule_id, environment_id, start_date, end_date, status, error_message, created_at, version
		FROM optimizations
		ORDER BY id
	`
	return r.getOptimizations(query)
}

func (r *Repository) GetOptimizationsByEnvironmentID(environmentID int64) ([]*domain.Optimization, error) {
	query := `
		SELECT id, tour_schedule_id, environment_id, start_date, end_date, status, error_message, created_at, version
		FROM optimizations
		WHERE environment_id = $1
		ORDER BY id
	`
	return r.getOptimizations(query, environmentID)
}

// UpdateOptimization overwrites the whole record last-write-wins; only the
// worker's claim and terminal writes are conditional.
func (r *Repository) UpdateOptimization(o *domain.Optimization) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimizations
		SET tour_schedule_id = $1,
			environment_id = $2,
			start_date = $3,
			end_date = $4,
			status = $5,
			error_message = $6,
			version = version + 1
		WHERE id = $7
		RETURNING created_at, version
	`

	return r.dbpool.QueryRowContext(ctx, query,
		o.TourScheduleID,
		o.EnvironmentID,
		o.StartDate,
		o.EndDate,
		o.Status,
		o.ErrorMessage,
		o.ID,
	).Scan(&o.CreatedAt, &o.Version)
}

func (r *Repository) DeleteOptimization(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM optimizations WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// ClaimOptimization performs the Pending -> InProgress transition as a single
// compare-and-swap, so of two workers dequeuing the same job exactly one wins.
// Returns sql.ErrNoRows when the job does not exist and ErrNotClaimable when
// it exists but is not Pending.
func (r *Repository) ClaimOptimization(id int64) (*domain.Optimization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimizations
		SET status = $1, error_message = NULL, version = version + 1
		WHERE id = $2 AND status = $3
		RETURNING id, tour_schedule_id, environment_id, start_date, end_date, status, created_at, version
	`

	o := &domain.Optimization{}
	err := r.dbpool.QueryRowContext(ctx, query, domain.OptimizationInProgress, id, domain.OptimizationPending).Scan(
		&o.ID,
		&o.TourScheduleID,
		&o.EnvironmentID,
		&o.StartDate,
		&o.EndDate,
		&o.Status,
		&o.CreatedAt,
		&o.Version,
	)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// distinguish a missing job from one already claimed or finished
	if _, err := r.GetOptimizationByID(id); err != nil {
		return nil, err
	}
	return nil, ErrNotClaimable
}

// ReleaseOptimization undoes a claim, putting the job back to Pending so a
// redelivery can claim it again. The write is guarded by the version observed
// at claim time; ErrOwnershipLost reports that a reset or another writer has
// taken the row over in the meantime.
func (r *Repository) ReleaseOptimization(o *domain.Optimization) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE optimizations
		SET status = $1, error_message = NULL, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING version
	`

	err := r.dbpool.QueryRowContext(ctx, query, domain.OptimizationPending, o.ID, o.Version).Scan(&o.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOwnershipLost
		}
		return err
	}

	o.Status = domain.OptimizationPending
	return nil
}

// FinishOptimization persists the solve outcome and the terminal status in one
// transaction. The status write is guarded by the version the worker observed
// at claim time: if a reset raced the solve, the transaction is abandoned with
// ErrOwnershipLost and nothing is persisted.
func (r *Repository) FinishOptimization(o *domain.Optimization, assignments []domain.TourScheduleAssignment, unsatisfiedPeriodIDs []int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE optimizations
		SET status = $1, error_message = $2, version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	if err := tx.QueryRowContext(ctx, query, o.Status, o.ErrorMessage, o.ID, o.Version).Scan(&o.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOwnershipLost
		}
		return err
	}

	// replace any previous result
	if _, err := tx.ExecContext(ctx, `DELETE FROM tour_schedule_assignments WHERE optimization_id = $1`, o.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM optimization_unsatisfied_periods WHERE optimization_id = $1`, o.ID); err != nil {
		return err
	}

	for i := range assignments {
		query := `
			INSERT INTO tour_schedule_assignments (optimization_id, human_resource_id, demand_period_id, start_time, end_time, overtime_hours)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query,
			o.ID,
			assignments[i].HumanResourceID,
			assignments[i].DemandPeriodID,
			assignments[i].StartTime,
			assignments[i].EndTime,
			assignments[i].OvertimeHours,
		).Scan(&assignments[i].ID); err != nil {
			return err
		}
		assignments[i].OptimizationID = o.ID
	}

	for _, periodID := range unsatisfiedPeriodIDs {
		query := `
			INSERT INTO optimization_unsatisfied_periods (optimization_id, demand_period_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, o.ID, periodID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ResetOptimization forces the status back to Pending unconditionally and
// clears any partial result. It never signals a running worker; the worker's
// version-guarded terminal write is what keeps a stale result out.
func (r *Repository) ResetOptimization(id int64) (*domain.Optimization, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE optimizations
		SET status = $1, error_message = NULL, version = version + 1
		WHERE id = $2
		RETURNING id, tour_schedule_id, environment_id, start_date, end_date, status, created_at, version
	`

	o := &domain.Optimization{}
	if err := tx.QueryRowContext(ctx, query, domain.OptimizationPending, id).Scan(
		&o.ID,
		&o.TourScheduleID,
		&o.EnvironmentID,
		&o.StartDate,
		&o.EndDate,
		&o.Status,
		&o.CreatedAt,
		&o.Version,
	); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tour_schedule_assignments WHERE optimization_id = $1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM optimization_unsatisfied_periods WHERE optimization_id = $1`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return o, nil
}

func (r *Repository) ListAssignmentsByOptimizationID(optimizationID int64) ([]domain.TourScheduleAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, optimization_id, human_resource_id, demand_period_id, start_time, end_time, overtime_hours
		FROM tour_schedule_assignments
		WHERE optimization_id = $1
		ORDER BY demand_period_id, human_resource_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, optimizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.TourScheduleAssignment, 0)
	for rows.Next() {
		var a domain.TourScheduleAssignment
		if err := rows.Scan(
			&a.ID,
			&a.OptimizationID,
			&a.HumanResourceID,
			&a.DemandPeriodID,
			&a.StartTime,
			&a.EndTime,
			&a.OvertimeHours,
		); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}
