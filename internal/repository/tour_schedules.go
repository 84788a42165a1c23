package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

const (
	requirementKindSkill         = "skill"
	requirementKindQualification = "qualification"
	requirementKindBehaviour     = "behaviour"
)

func (r *Repository) InsertTourSchedule(ts *domain.TourSchedule) error {
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
		INSERT INTO tour_schedules (environment_id, name, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, ts.EnvironmentID, ts.Name, ts.StartDate, ts.EndDate).
		Scan(&ts.ID, &ts.CreatedAt, &ts.Version); err != nil {
		return err
	}

	if err := insertDemandPeriods(ctx, tx, ts); err != nil {
		return err
	}

	return tx.Commit()
}

func insertDemandPeriods(ctx context.Context, tx *sql.Tx, ts *domain.TourSchedule) error {
	for i := range ts.Periods {
		p := &ts.Periods[i]

		query := `
			INSERT INTO demand_periods (tour_schedule_id, work_unit_id, start_time, end_time, min_headcount, max_headcount)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`

		if err := tx.QueryRowContext(ctx, query, ts.ID, p.WorkUnitID, p.StartTime, p.EndTime, p.MinHeadcount, p.MaxHeadcount).
			Scan(&p.ID); err != nil {
			return err
		}

		requirements := []struct {
			kind  string
			names []string
		}{
			{requirementKindSkill, p.RequiredSkills},
			{requirementKindQualification, p.RequiredQualifications},
			{requirementKindBehaviour, p.RequiredBehaviours},
		}
		for _, req := range requirements {
			for _, name := range req.names {
				query := `
					INSERT INTO demand_period_requirements (demand_period_id, kind, name)
					VALUES ($1, $2, $3)
				`
				if _, err := tx.ExecContext(ctx, query, p.ID, req.kind, name); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (r *Repository) GetTourScheduleByID(id int64) (*domain.TourSchedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ts.id,
			ts.environment_id,
			ts.name,
			ts.start_date,
			ts.end_date,
			ts.created_at,
			ts.version,
			dp.id,
			dp.work_unit_id,
			dp.start_time,
			dp.end_time,
			dp.min_headcount,
			dp.max_headcount,
			dpr.kind,
			dpr.name
		FROM tour_schedules ts
		LEFT JOIN demand_periods dp ON ts.id = dp.tour_schedule_id
		LEFT JOIN demand_period_requirements dpr ON dp.id = dpr.demand_period_id
		WHERE ts.id = $1
		ORDER BY dp.id, dpr.kind, dpr.name
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := &domain.TourSchedule{}
	periodsMap := make(map[int64]*domain.DemandPeriod)
	periodOrder := make([]int64, 0)

	for rows.Next() {
		var row struct {
			periodID     sql.NullInt64
			workUnitID   sql.NullInt64
			startTime    sql.NullTime
			endTime      sql.NullTime
			minHeadcount sql.NullInt32
			maxHeadcount sql.NullInt32
			reqKind      sql.NullString
			reqName      sql.NullString
		}

		dst := []any{
			&ts.ID,
			&ts.EnvironmentID,
			&ts.Name,
			&ts.StartDate,
			&ts.EndDate,
			&ts.CreatedAt,
			&ts.Version,
			&row.periodID,
			&row.workUnitID,
			&row.startTime,
			&row.endTime,
			&row.minHeadcount,
			&row.maxHeadcount,
			&row.reqKind,
			&row.reqName,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !row.periodID.Valid {
			// a schedule without demand periods
			continue
		}

		p, exists := periodsMap[row.periodID.Int64]
		if !exists {
			p = &domain.DemandPeriod{
				ID:                     row.periodID.Int64,
				WorkUnitID:             row.workUnitID.Int64,
				StartTime:              row.startTime.Time,
				EndTime:                row.endTime.Time,
				MinHeadcount:           row.minHeadcount.Int32,
				MaxHeadcount:           row.maxHeadcount.Int32,
				RequiredSkills:         make([]string, 0),
				RequiredQualifications: make([]string, 0),
				RequiredBehaviours:     make([]string, 0),
			}
			periodsMap[row.periodID.Int64] = p
			periodOrder = append(periodOrder, row.periodID.Int64)
		}

		if !row.reqKind.Valid {
			continue
		}

		switch row.reqKind.String {
		case requirementKindSkill:
			p.RequiredSkills = append(p.RequiredSkills, row.reqName.String)
		case requirementKindQualification:
			p.RequiredQualifications = append(p.RequiredQualifications, row.reqName.String)
		case requirementKindBehaviour:
			p.RequiredBehaviours = append(p.RequiredBehaviours, row.reqName.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if ts.ID == 0 {
		return nil, sql.ErrNoRows
	}

	ts.Periods = make([]domain.DemandPeriod, 0, len(periodOrder))
	for _, periodID := range periodOrder {
		ts.Periods = append(ts.Periods, *periodsMap[periodID])
	}

	return ts, nil
}

// GetTourSchedulesByEnvironmentID returns schedule metadata only; demand
// periods are loaded by GetTourScheduleByID.
func (r *Repository) GetTourSchedulesByEnvironmentID(environmentID int64) ([]*domain.TourSchedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, environment_id, name, start_date, end_date, created_at, version
		FROM tour_schedules
		WHERE environment_id = $1
		ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, environmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]*domain.TourSchedule, 0)
	for rows.Next() {
		ts := &domain.TourSchedule{}
		if err := rows.Scan(&ts.ID, &ts.EnvironmentID, &ts.Name, &ts.StartDate, &ts.EndDate, &ts.CreatedAt, &ts.Version); err != nil {
			return nil, err
		}
		schedules = append(schedules, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *Repository) UpdateTourSchedule(ts *domain.TourSchedule) error {
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
		UPDATE tour_schedules
		SET environment_id = $1, name = $2, start_date = $3, end_date = $4, version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, ts.EnvironmentID, ts.Name, ts.StartDate, ts.EndDate, ts.ID, ts.Version).
		Scan(&ts.CreatedAt, &ts.Version); err != nil {
		return err
	}

	// demand periods are replaced wholesale
	if _, err := tx.ExecContext(ctx, `DELETE FROM demand_periods WHERE tour_schedule_id = $1`, ts.ID); err != nil {
		return err
	}
	if err := insertDemandPeriods(ctx, tx, ts); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeleteTourSchedule(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM tour_schedules WHERE id = $1`, id)
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
