package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

func (h *Handler) idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func solveLockKey(optimizationID int64) string {
	return fmt.Sprintf("optimization:solve:%d", optimizationID)
}

func (h *Handler) CreateOptimization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TourScheduleID int64     `json:"tourScheduleID" validate:"required"`
		EnvironmentID  int64     `json:"environmentID" validate:"required"`
		StartDate      time.Time `json:"startDate" validate:"required"`
		EndDate        time.Time `json:"endDate" validate:"required"`
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

	if _, err := h.optimizations.GetTourScheduleByID(req.TourScheduleID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "tour schedule does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	optimization := &domain.Optimization{
		TourScheduleID: req.TourScheduleID,
		EnvironmentID:  req.EnvironmentID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
	}

	if err := h.optimizations.InsertOptimization(optimization); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/optimizations/%d", optimization.ID))
	h.writeJSON(w, r, http.StatusCreated, optimization)
}

func (h *Handler) GetOptimizations(w http.ResponseWriter, r *http.Request) {
	envParam := r.URL.Query().Get("environmentId")
	if envParam == "" {
		optimizations, err := h.optimizations.GetAllOptimizations()
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		h.writeJSON(w, r, http.StatusOK, optimizations)
		return
	}

	environmentID, err := strconv.ParseInt(envParam, 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid environmentId"))
		return
	}

	optimizations, err := h.optimizations.GetOptimizationsByEnvironmentID(environmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, optimizations)
}

func (h *Handler) GetOptimization(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	optimization, err := h.optimizations.GetOptimizationByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, optimization)
}

func (h *Handler) UpdateOptimization(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	var req struct {
		StartDate *time.Time `json:"startDate"`
		EndDate   *time.Time `json:"endDate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	optimization, err := h.optimizations.GetOptimizationByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.StartDate != nil {
		optimization.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		optimization.EndDate = *req.EndDate
	}
	if optimization.EndDate.Before(optimization.StartDate) {
		h.badRequest(w, r, errors.New("endDate must not be before startDate"))
		return
	}

	if err := h.optimizations.UpdateOptimization(optimization); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, optimization)
}

func (h *Handler) DeleteOptimization(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	if err := h.optimizations.DeleteOptimization(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SolveOptimization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptimizationID   int64   `json:"optimizationID" validate:"required"`
		CostWeight       float64 `json:"costWeight" validate:"gte=0"`
		FairnessWeight   float64 `json:"fairnessWeight" validate:"gte=0"`
		AllowOvertime    bool    `json:"allowOvertime"`
		MaxOvertimeHours float64 `json:"maxOvertimeHours" validate:"gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	optimization, err := h.optimizations.GetOptimizationByID(req.OptimizationID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// only a Pending job can be handed to the worker; anything else needs a
	// reset first, otherwise the claim would silently drop the message
	if optimization.Status != domain.OptimizationPending {
		h.conflict(w, r, "optimization is not pending; reset its status before solving")
		return
	}

	// a short-lived lock absorbs double-clicked solve requests
	if h.redisClient != nil {
		ok, err := h.redisClient.SetNX(
			r.Context(),
			solveLockKey(optimization.ID),
			"1",
			time.Duration(h.config.Redis.SolveLockExpiration)*time.Second,
		).Result()
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if !ok {
			h.conflict(w, r, "a solve request for this optimization is already queued")
			return
		}
	}

	notifyEmail, _ := r.Context().Value(EmailCtxKey).(string)

	msg := domain.SolveMessage{
		Parameters: domain.OptimizationParameters{
			OptimizationID:   optimization.ID,
			CostWeight:       req.CostWeight,
			FairnessWeight:   req.FairnessWeight,
			AllowOvertime:    req.AllowOvertime,
			MaxOvertimeHours: req.MaxOvertimeHours,
		},
		NotifyEmail: notifyEmail,
	}

	jobID, err := h.solveQueue.Enqueue(r.Context(), msg)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"jobID":          jobID,
		"optimizationID": optimization.ID,
		"status":         optimization.Status,
	})
}

func (h *Handler) GetOptimizationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	optimization, err := h.optimizations.GetOptimizationByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"id":                   optimization.ID,
		"status":               optimization.Status,
		"tourScheduleID":       optimization.TourScheduleID,
		"environmentID":        optimization.EnvironmentID,
		"startDate":            optimization.StartDate,
		"endDate":              optimization.EndDate,
		"errorMessage":         optimization.ErrorMessage,
		"unsatisfiedPeriodIDs": optimization.UnsatisfiedPeriodIDs,
	})
}

func (h *Handler) ResetOptimizationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	optimization, err := h.optimizations.ResetOptimization(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// allow a fresh solve dispatch immediately after the reset
	if h.redisClient != nil {
		if err := h.redisClient.Del(r.Context(), solveLockKey(id)).Err(); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.writeJSON(w, r, http.StatusOK, optimization)
}

func (h *Handler) GetOptimizationAssignments(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid optimization id"))
		return
	}

	if _, err := h.optimizations.GetOptimizationByID(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "optimization does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assignments, err := h.optimizations.ListAssignmentsByOptimizationID(id)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, assignments)
}
