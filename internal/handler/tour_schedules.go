package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

type demandPeriodRequest struct {
	WorkUnitID             int64     `json:"workUnitID"`
	StartTime              time.Time `json:"startTime" validate:"required"`
	EndTime                time.Time `json:"endTime" validate:"required"`
	MinHeadcount           int32     `json:"minHeadcount" validate:"gte=0"`
	MaxHeadcount           int32     `json:"maxHeadcount" validate:"gte=0"`
	RequiredSkills         []string  `json:"requiredSkills"`
	RequiredQualifications []string  `json:"requiredQualifications"`
	RequiredBehaviours     []string  `json:"requiredBehaviours"`
}

func (r demandPeriodRequest) toDomain() domain.DemandPeriod {
	return domain.DemandPeriod{
		WorkUnitID:             r.WorkUnitID,
		StartTime:              r.StartTime,
		EndTime:                r.EndTime,
		MinHeadcount:           r.MinHeadcount,
		MaxHeadcount:           r.MaxHeadcount,
		RequiredSkills:         r.RequiredSkills,
		RequiredQualifications: r.RequiredQualifications,
		RequiredBehaviours:     r.RequiredBehaviours,
	}
}

func validateDemandPeriods(periods []demandPeriodRequest) error {
	for i, p := range periods {
		if !p.EndTime.After(p.StartTime) {
			return fmt.Errorf("period %d: endTime must be after startTime", i)
		}
		if p.MinHeadcount > p.MaxHeadcount {
			return fmt.Errorf("period %d: minHeadcount must not exceed maxHeadcount", i)
		}
	}
	return nil
}

func (h *Handler) CreateTourSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EnvironmentID int64                 `json:"environmentID" validate:"required"`
		Name          string                `json:"name" validate:"required"`
		StartDate     time.Time             `json:"startDate" validate:"required"`
		EndDate       time.Time             `json:"endDate" validate:"required"`
		Periods       []demandPeriodRequest `json:"periods" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.EndDate.Before(req.StartDate) {
		h.badRequest(w, r, errors.New("endDate must not be before startDate"))
		return
	}
	if err := validateDemandPeriods(req.Periods); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := &domain.TourSchedule{
		EnvironmentID: req.EnvironmentID,
		Name:          req.Name,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	}
	for _, p := range req.Periods {
		schedule.Periods = append(schedule.Periods, p.toDomain())
	}

	if err := h.repository.InsertTourSchedule(schedule); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/tour-schedules/%d", schedule.ID))
	h.writeJSON(w, r, http.StatusCreated, schedule)
}

func (h *Handler) GetTourSchedules(w http.ResponseWriter, r *http.Request) {
	environmentID, err := strconv.ParseInt(r.URL.Query().Get("environmentId"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("environmentId query parameter is required"))
		return
	}

	schedules, err := h.repository.GetTourSchedulesByEnvironmentID(environmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, schedules)
}

func (h *Handler) GetTourSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid tour schedule id"))
		return
	}

	schedule, err := h.repository.GetTourScheduleByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "tour schedule does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, schedule)
}

func (h *Handler) UpdateTourSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid tour schedule id"))
		return
	}

	var req struct {
		Name      *string                `json:"name"`
		StartDate *time.Time             `json:"startDate"`
		EndDate   *time.Time             `json:"endDate"`
		Periods   *[]demandPeriodRequest `json:"periods"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule, err := h.repository.GetTourScheduleByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "tour schedule does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.StartDate != nil {
		schedule.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		schedule.EndDate = *req.EndDate
	}
	if schedule.EndDate.Before(schedule.StartDate) {
		h.badRequest(w, r, errors.New("endDate must not be before startDate"))
		return
	}
	if req.Periods != nil {
		if err := validateDemandPeriods(*req.Periods); err != nil {
			h.badRequest(w, r, err)
			return
		}
		schedule.Periods = nil
		for _, p := range *req.Periods {
			schedule.Periods = append(schedule.Periods, p.toDomain())
		}
	}

	if err := h.repository.UpdateTourSchedule(schedule); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "tour schedule was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, schedule)
}

func (h *Handler) DeleteTourSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid tour schedule id"))
		return
	}

	if err := h.repository.DeleteTourSchedule(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "tour schedule does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
