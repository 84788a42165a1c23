package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

func (r *Repository) InsertLeaveTake(lt *domain.LeaveTake) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO leave_takes (human_resource_id, leave_type, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	return r.dbpool.QueryRowContext(ctx, query, lt.HumanResourceID, lt.LeaveType, lt.StartTime, lt.EndTime).
		Scan(&lt.ID, &lt.CreatedAt, &lt.Version)
}

func (r *Repository) GetLeaveTakeByID(id int64) (*domain.LeaveTake, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, human_resource_id, leave_type, start_time, end_time, created_at, version
		FROM leave_takes
		WHERE id = $1
	`

	lt := &domain.LeaveTake{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(
		&lt.ID,
		&lt.HumanResourceID,
		&lt.LeaveType,
		&lt.StartTime,
		&lt.EndTime,
		&lt.CreatedAt,
		&lt.Version,
	); err != nil {
		return nil, err
	}

	return lt, nil
}

func (r *Repository) getLeaveTakes(query string, args ...any) ([]*domain.LeaveTake, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaveTakes := make([]*domain.LeaveTake, 0)
	for rows.Next() {
		lt := &domain.LeaveTake{}
		if err := rows.Scan(
			&lt.ID,
			&lt.HumanResourceID,
			&lt.LeaveType,
			&lt.StartTime,
			&lt.EndTime,
			&lt.CreatedAt,
			&lt.Version,
		); err != nil {
			return nil, err
		}
		leaveTakes = append(leaveTakes, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leaveTakes, nil
}

func (r *Repository) GetLeaveTakesByHumanResourceID(humanResourceID int64) ([]*domain.LeaveTake, error) {
	query := `
		SELECT id, human_resource_id, leave_type, start_time, end_time, created_at, version
		FROM leave_takes
		WHERE human_resource_id = $1
		ORDER BY start_time, id
	`
	return r.getLeaveTakes(query, humanResourceID)
}

// GetLeaveTakesByEnvironmentAndRange returns the leave intervals of all
// resources of an environment overlapping [from, to). This is the worker's
// availability snapshot query.
func (r *Repository) GetLeaveTakesByEnvironmentAndRange(environmentID int64, from, to time.Time) ([]*domain.LeaveTake, error) {
	query := `
		SELECT lt.id, lt.human_resource_id, lt.leave_type, lt.start_time, lt.end_time, lt.created_at, lt.version
		FROM leave_takes lt
		JOIN human_resources hr ON lt.human_resource_id = hr.id
		WHERE hr.environment_id = $1 AND lt.start_time < $3 AND lt.end_time > $2
		ORDER BY lt.start_time, lt.id
	`
	return r.getLeaveTakes(query, environmentID, from, to)
}

func (r *Repository) UpdateLeaveTake(lt *domain.LeaveTake) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE leave_takes
		SET human_resource_id = $1, leave_type = $2, start_time = $3, end_time = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING created_at, version
	`

	return r.dbpool.QueryRowContext(ctx, query, lt.HumanResourceID, lt.LeaveType, lt.StartTime, lt.EndTime, lt.ID, lt.Version).
		Scan(&lt.CreatedAt, &lt.Version)
}

func (r *Repository) DeleteLeaveTake(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM leave_takes WHERE id = $1`, id)
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
