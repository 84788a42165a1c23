package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

func (h *Handler) CreateHumanResource(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EnvironmentID       int64    `json:"environmentID" validate:"required"`
		FullName            string   `json:"fullName" validate:"required"`
		Skills              []string `json:"skills"`
		Qualifications      []string `json:"qualifications"`
		Behaviours          []string `json:"behaviours"`
		CostPerHour         float64  `json:"costPerHour" validate:"gte=0"`
		OvertimeCostPerHour float64  `json:"overtimeCostPerHour" validate:"gte=0"`
		MonthlyFixedCost    float64  `json:"monthlyFixedCost" validate:"gte=0"`
		ContractedHours     float64  `json:"contractedHours" validate:"gte=0"`
		CycleDays           int32    `json:"cycleDays" validate:"gte=0"`
		MinQuantity         int32    `json:"minQuantity" validate:"gte=0"`
		MaxQuantity         int32    `json:"maxQuantity" validate:"gte=0"`
		PriorityWeight      float64  `json:"priorityWeight" validate:"gte=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.MinQuantity > req.MaxQuantity {
		h.badRequest(w, r, errors.New("minQuantity must not exceed maxQuantity"))
		return
	}

	resource := &domain.HumanResource{
		EnvironmentID:       req.EnvironmentID,
		FullName:            req.FullName,
		Skills:              req.Skills,
		Qualification:       req.Qualifications,
		Behaviours:          req.Behaviours,
		CostPerHour:         req.CostPerHour,
		OvertimeCostPerHour: req.OvertimeCostPerHour,
		MonthlyFixedCost:    req.MonthlyFixedCost,
		ContractedHours:     req.ContractedHours,
		CycleDays:           req.CycleDays,
		MinQuantity:         req.MinQuantity,
		MaxQuantity:         req.MaxQuantity,
		PriorityWeight:      req.PriorityWeight,
	}

	if err := h.repository.InsertHumanResource(resource); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/human-resources/%d", resource.ID))
	h.writeJSON(w, r, http.StatusCreated, resource)
}

func (h *Handler) GetHumanResources(w http.ResponseWriter, r *http.Request) {
	environmentID, err := strconv.ParseInt(r.URL.Query().Get("environmentId"), 10, 64)
	if err != nil {
		h.badRequest(w, r, errors.New("environmentId query parameter is required"))
		return
	}

	resources, err := h.repository.GetHumanResourcesByEnvironmentID(environmentID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, resources)
}

func (h *Handler) GetHumanResource(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid human resource id"))
		return
	}

	resource, err := h.repository.GetHumanResourceByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "human resource does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, resource)
}

func (h *Handler) UpdateHumanResource(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid human resource id"))
		return
	}

	var req struct {
		FullName            *string   `json:"fullName"`
		Skills              *[]string `json:"skills"`
		Qualifications      *[]string `json:"qualifications"`
		Behaviours          *[]string `json:"behaviours"`
		CostPerHour         *float64  `json:"costPerHour"`
		OvertimeCostPerHour *float64  `json:"overtimeCostPerHour"`
		MonthlyFixedCost    *float64  `json:"monthlyFixedCost"`
		ContractedHours     *float64  `json:"contractedHours"`
		CycleDays           *int32    `json:"cycleDays"`
		MinQuantity         *int32    `json:"minQuantity"`
		MaxQuantity         *int32    `json:"maxQuantity"`
		PriorityWeight      *float64  `json:"priorityWeight"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	resource, err := h.repository.GetHumanResourceByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "human resource does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if req.FullName != nil {
		resource.FullName = *req.FullName
	}
	if req.Skills != nil {
		resource.Skills = *req.Skills
	}
	if req.Qualifications != nil {
		resource.Qualification = *req.Qualifications
	}
	if req.Behaviours != nil {
		resource.Behaviours = *req.Behaviours
	}
	if req.CostPerHour != nil {
		resource.CostPerHour = *req.CostPerHour
	}
	if req.OvertimeCostPerHour != nil {
		resource.OvertimeCostPerHour = *req.OvertimeCostPerHour
	}
	if req.MonthlyFixedCost != nil {
		resource.MonthlyFixedCost = *req.MonthlyFixedCost
	}
	if req.ContractedHours != nil {
		resource.ContractedHours = *req.ContractedHours
	}
	if req.CycleDays != nil {
		resource.CycleDays = *req.CycleDays
	}
	if req.MinQuantity != nil {
		resource.MinQuantity = *req.MinQuantity
	}
	if req.MaxQuantity != nil {
		resource.MaxQuantity = *req.MaxQuantity
	}
	if req.PriorityWeight != nil {
		resource.PriorityWeight = *req.PriorityWeight
	}

	if resource.MinQuantity > resource.MaxQuantity {
		h.badRequest(w, r, errors.New("minQuantity must not exceed maxQuantity"))
		return
	}

	if err := h.repository.UpdateHumanResource(resource); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.conflict(w, r, "human resource was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, resource)
}

func (h *Handler) DeleteHumanResource(w http.ResponseWriter, r *http.Request) {
	id, err := h.idParam(r)
	if err != nil {
		h.badRequest(w, r, errors.New("invalid human resource id"))
		return
	}

	if err := h.repository.DeleteHumanResource(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "human resource does not exist")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
