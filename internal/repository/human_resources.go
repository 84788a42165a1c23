package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

const humanResourceColumns = `
	hr.id,
	hr.environment_id,
	hr.full_name,
	hr.cost_per_hour,
	hr.overtime_cost_per_hour,
	hr.monthly_fixed_cost,
	hr.contracted_hours,
	hr.cycle_days,
	hr.min_quantity,
	hr.max_quantity,
	hr.priority_weight,
	hr.created_at,
	hr.version
`

func scanHumanResource(dst *domain.HumanResource) []any {
	return []any{
		&dst.ID,
		&dst.EnvironmentID,
		&dst.FullName,
		&dst.CostPerHour,
		&dst.OvertimeCostPerHour,
		&dst.MonthlyFixedCost,
		&dst.ContractedHours,
		&dst.CycleDays,
		&dst.MinQuantity,
		&dst.MaxQuantity,
		&dst.PriorityWeight,
		&dst.CreatedAt,
		&dst.Version,
	}
}

func (r *Repository) InsertHumanResource(hr *domain.HumanResource) error {
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
		INSERT INTO human_resources (
			environment_id, full_name, cost_per_hour, overtime_cost_per_hour, monthly_fixed_cost,
			contracted_hours, cycle_days, min_quantity, max_quantity, priority_weight
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query,
		hr.EnvironmentID,
		hr.FullName,
		hr.CostPerHour,
		hr.OvertimeCostPerHour,
		hr.MonthlyFixedCost,
		hr.ContractedHours,
		hr.CycleDays,
		hr.MinQuantity,
		hr.MaxQuantity,
		hr.PriorityWeight,
	).Scan(&hr.ID, &hr.CreatedAt, &hr.Version); err != nil {
		return err
	}

	if err := insertHumanResourceAttributes(ctx, tx, hr); err != nil {
		return err
	}

	return tx.Commit()
}

func insertHumanResourceAttributes(ctx context.Context, tx *sql.Tx, hr *domain.HumanResource) error {
	attributes := []struct {
		kind  string
		names []string
	}{
		{requirementKindSkill, hr.Skills},
		{requirementKindQualification, hr.Qualification},
		{requirementKindBehaviour, hr.Behaviours},
	}

	for _, attr := range attributes {
		for _, name := range attr.names {
			query := `
				INSERT INTO human_resource_attributes (human_resource_id, kind, name)
				VALUES ($1, $2, $3)
			`
			if _, err := tx.ExecContext(ctx, query, hr.ID, attr.kind, name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Repository) getHumanResourcesWithAttributes(query string, args ...any) ([]*domain.HumanResource, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resourcesMap := make(map[int64]*domain.HumanResource)
	order := make([]int64, 0)

	for rows.Next() {
		hr := &domain.HumanResource{}
		var attrKind, attrName sql.NullString

		dst := append(scanHumanResource(hr), &attrKind, &attrName)
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		existing, ok := resourcesMap[hr.ID]
		if !ok {
			hr.Skills = make([]string, 0)
			hr.Qualification = make([]string, 0)
			hr.Behaviours = make([]string, 0)
			resourcesMap[hr.ID] = hr
			order = append(order, hr.ID)
			existing = hr
		}

		if !attrKind.Valid {
			continue
		}

		switch attrKind.String {
		case requirementKindSkill:
			existing.Skills = append(existing.Skills, attrName.String)
		case requirementKindQualification:
			existing.Qualification = append(existing.Qualification, attrName.String)
		case requirementKindBehaviour:
			existing.Behaviours = append(existing.Behaviours, attrName.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	resources := make([]*domain.HumanResource, 0, len(order))
	for _, id := range order {
		resources = append(resources, resourcesMap[id])
	}

	return resources, nil
}

func (r *Repository) GetHumanResourceByID(id int64) (*domain.HumanResource, error) {
	query := `
		SELECT ` + humanResourceColumns + `, hra.kind, hra.name
		FROM human_resources hr
		LEFT JOIN human_resource_attributes hra ON hr.id = hra.human_resource_id
		WHERE hr.id = $1
		ORDER BY hra.kind, hra.name
	`

	resources, err := r.getHumanResourcesWithAttributes(query, id)
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, sql.ErrNoRows
	}

	return resources[0], nil
}

func (r *Repository) GetHumanResourcesByEnvironmentID(environmentID int64) ([]*domain.HumanResource, error) {
	query := `
		SELECT ` + humanResourceColumns + `, hra.kind, hra.name
		FROM human_resources hr
		LEFT JOIN human_resource_attributes hra ON hr.id = hra.human_resource_id
		WHERE hr.environment_id = $1
		ORDER BY hr.id, hra.kind, hra.name
	`

	return r.getHumanResourcesWithAttributes(query, environmentID)
}

func (r *Repository) UpdateHumanResource(hr *domain.HumanResource) error {
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
		UPDATE human_resources
		SET environment_id = $1,
			full_name = $2,
			cost_per_hour = $3,
			overtime_cost_per_hour = $4,
			monthly_fixed_cost = $5,
			contracted_hours = $6,
			cycle_days = $7,
			min_quantity = $8,
			max_quantity = $9,
			priority_weight = $10,
			version = version + 1
		WHERE id = $11 AND version = $12
		RETURNING created_at, version
	`

	if err := tx.QueryRowContext(ctx, query,
		hr.EnvironmentID,
		hr.FullName,
		hr.CostPerHour,
		hr.OvertimeCostPerHour,
		hr.MonthlyFixedCost,
		hr.ContractedHours,
		hr.CycleDays,
		hr.MinQuantity,
		hr.MaxQuantity,
		hr.PriorityWeight,
		hr.ID,
		hr.Version,
	).Scan(&hr.CreatedAt, &hr.Version); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM human_resource_attributes WHERE human_resource_id = $1`, hr.ID); err != nil {
		return err
	}
	if err := insertHumanResourceAttributes(ctx, tx, hr); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeleteHumanResource(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, `DELETE FROM human_resources WHERE id = $1`, id)
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
