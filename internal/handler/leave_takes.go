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

func (h *Handler) CreateLeaveTake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HumanResourceID int64     `json:"humanResourceID" validate:"required"`
		LeaveType       string    `json:"leaveType" validate:"required"`
		StartTime       time.Time `json:"startTime" validate:"required"`
		EndTime         time.Time `json:"endTime" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		h.badRequest(w, r, errors.New("endTime must be after startTime"))
		return
	}

	if _, err := h.repository.GetHumanResourceByID(req.HumanResourceID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "human resource does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	leave := &domain.LeaveTake{
		HumanResourceID: req.HumanResourceID,
		LeaveType:       req.LeaveType,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
	}

	if err := h.repository.InsertLeaveTake(leave); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/leave-takes/%d", leave.ID))
	h.writeJSON(w, r, http.StatusCreated, leave)
}

func (h *Handler) GetLeaveTakes(w http.ResponseWriter, r *http.Request) {
	humanResourceID, err := strconv.ParseInt(r.URL.Query().Get("humanResourceId"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("humanResourceId query parameter is required"))
		return
	}

	leaves, err := h.repository.GetLeaveTakesByHumanResourceID(humanResourceID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, leaves)
}

func (h *Handler) GetLeaveTake(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid leave take id"))
		return
	}

	leave, err := h.repository.GetLeaveTakeByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "leave take does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, leave)
}

func (h *Handler) UpdateLeaveTake(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid leave take id"))
		return
	}

	var req struct {
		LeaveType *string    `json:"leaveType"`
		StartTime *time.Time `json:"startTime"`
		EndTime   *time.Time `json:"endTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	leave, err := h.repository.GetLeaveTakeByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "leave take does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.LeaveType != nil {
		leave.LeaveType = *req.LeaveType
	}
	if req.StartTime != nil {
		leave.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		leave.EndTime = *req.EndTime
	}
	if !leave.EndTime.After(leave.StartTime) {
		h.badRequest(w, r, errors.New("endTime must be after startTime"))
		return
	}

	if err := h.repository.UpdateLeaveTake(leave); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "leave take was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, leave)
}

func (h *Handler) DeleteLeaveTake(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid leave take id"))
		return
	}

	if err := h.repository.DeleteLeaveTake(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "leave take does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
