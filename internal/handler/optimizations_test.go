package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shiftwise-dev/workforce/backend/internal/config"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeOptimizationStore struct {
	jobs      map[int64]*domain.Optimization
	schedules map[int64]*domain.TourSchedule
	nextID    int64

	resets      []int64
	assignments map[int64][]domain.TourScheduleAssignment
}

func newFakeOptimizationStore() *fakeOptimizationStore {
	return &fakeOptimizationStore{
		jobs:        make(map[int64]*domain.Optimization),
		schedules:   make(map[int64]*domain.TourSchedule),
		assignments: make(map[int64][]domain.TourScheduleAssignment),
		nextID:      1,
	}
}

func (s *fakeOptimizationStore) InsertOptimization(o *domain.Optimization) error {
	o.ID = s.nextID
	s.nextID++
	o.Status = domain.OptimizationPending
	o.CreatedAt = time.Now()
	o.Version = 1
	copied := *o
	s.jobs[o.ID] = &copied
	return nil
}

func (s *fakeOptimizationStore) GetOptimizationByID(id int64) (*domain.Optimization, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *fakeOptimizationStore) GetAllOptimizations() ([]*domain.Optimization, error) {
	out := make([]*domain.Optimization, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeOptimizationStore) GetOptimizationsByEnvironmentID(environmentID int64) ([]*domain.Optimization, error) {
	out := make([]*domain.Optimization, 0)
	for _, job := range s.jobs {
		if job.EnvironmentID == environmentID {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeOptimizationStore) UpdateOptimization(o *domain.Optimization) error {
	if _, ok := s.jobs[o.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *o
	s.jobs[o.ID] = &copied
	return nil
}

func (s *fakeOptimizationStore) DeleteOptimization(id int64) error {
	if _, ok := s.jobs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.jobs, id)
	return nil
}

func (s *fakeOptimizationStore) ResetOptimization(id int64) (*domain.Optimization, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.resets = append(s.resets, id)
	job.Status = domain.OptimizationPending
	job.ErrorMessage = nil
	job.UnsatisfiedPeriodIDs = nil
	job.Version++
	delete(s.assignments, id)
	copied := *job
	return &copied, nil
}

func (s *fakeOptimizationStore) ListAssignmentsByOptimizationID(id int64) ([]domain.TourScheduleAssignment, error) {
	return s.assignments[id], nil
}

func (s *fakeOptimizationStore) GetTourScheduleByID(id int64) (*domain.TourSchedule, error) {
	schedule, ok := s.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return schedule, nil
}

type fakeEnqueuer struct {
	messages []domain.SolveMessage
}

func (q *fakeEnqueuer) Enqueue(_ context.Context, msg domain.SolveMessage) (string, error) {
	q.messages = append(q.messages, msg)
	return fmt.Sprintf("job-%d", len(q.messages)), nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeOptimizationStore, *fakeEnqueuer) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Redis.SolveLockExpiration = 300
	cfg.JWT.Secret = "test-secret"

	enqueuer := &fakeEnqueuer{}
	h, err := NewHandler(cfg, nil, enqueuer, nil)
	require.NoError(t, err)

	store := newFakeOptimizationStore()
	h.optimizations = store
	return h, store, enqueuer
}

func newRequestWithID(method, target string, body []byte, id int64) *http.Request {
	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", fmt.Sprintf("%d", id))
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func seedOptimization(store *fakeOptimizationStore) *domain.Optimization {
	store.schedules[7] = &domain.TourSchedule{ID: 7, EnvironmentID: 1}
	o := &domain.Optimization{
		TourScheduleID: 7,
		EnvironmentID:  1,
		StartDate:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
	}
	_ = store.InsertOptimization(o)
	return o
}

func TestCreateOptimization(t *testing.T) {
	h, store, _ := newTestHandler(t)
	store.schedules[7] = &domain.TourSchedule{ID: 7, EnvironmentID: 1}

	body := []byte(`{
		"tourScheduleID": 7,
		"environmentID": 1,
		"startDate": "2025-06-02T00:00:00Z",
		"endDate": "2025-06-16T00:00:00Z"
	}`)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations", bytes.NewReader(body))
	h.CreateOptimization(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "/optimizations/1", w.Header().Get("Location"))

	var created domain.Optimization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, domain.OptimizationPending, created.Status)
}

func TestCreateOptimizationUnknownSchedule(t *testing.T) {
	h, _, _ := newTestHandler(t)

	body := []byte(`{
		"tourScheduleID": 99,
		"environmentID": 1,
		"startDate": "2025-06-02T00:00:00Z",
		"endDate": "2025-06-16T00:00:00Z"
	}`)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations", bytes.NewReader(body))
	h.CreateOptimization(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateOptimizationRejectsInvertedDates(t *testing.T) {
	h, store, _ := newTestHandler(t)
	store.schedules[7] = &domain.TourSchedule{ID: 7, EnvironmentID: 1}

	body := []byte(`{
		"tourScheduleID": 7,
		"environmentID": 1,
		"startDate": "2025-06-16T00:00:00Z",
		"endDate": "2025-06-02T00:00:00Z"
	}`)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations", bytes.NewReader(body))
	h.CreateOptimization(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSolveOptimizationEnqueues(t *testing.T) {
	h, store, enqueuer := newTestHandler(t)
	job := seedOptimization(store)

	body := []byte(fmt.Sprintf(`{
		"optimizationID": %d,
		"costWeight": 1.0,
		"fairnessWeight": 0.5,
		"allowOvertime": true,
		"maxOvertimeHours": 10
	}`, job.ID))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations/solve", bytes.NewReader(body))
	r = r.WithContext(context.WithValue(r.Context(), EmailCtxKey, "planner@example.com"))
	h.SolveOptimization(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		JobID          string `json:"jobID"`
		OptimizationID int64  `json:"optimizationID"`
		Status         string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "job-1", resp.JobID)
	require.Equal(t, job.ID, resp.OptimizationID)
	require.Equal(t, "Pending", resp.Status)

	require.Len(t, enqueuer.messages, 1)
	msg := enqueuer.messages[0]
	require.Equal(t, job.ID, msg.Parameters.OptimizationID)
	require.Equal(t, 0.5, msg.Parameters.FairnessWeight)
	require.True(t, msg.Parameters.AllowOvertime)
	require.Equal(t, "planner@example.com", msg.NotifyEmail)
}

func TestSolveOptimizationUnknownJobDoesNotEnqueue(t *testing.T) {
	h, _, enqueuer := newTestHandler(t)

	body := []byte(`{"optimizationID": 42, "costWeight": 1.0}`)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations/solve", bytes.NewReader(body))
	h.SolveOptimization(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Empty(t, enqueuer.messages)
}

func TestSolveOptimizationRejectsNegativeWeights(t *testing.T) {
	h, store, enqueuer := newTestHandler(t)
	job := seedOptimization(store)

	body := []byte(fmt.Sprintf(`{"optimizationID": %d, "costWeight": -1.0}`, job.ID))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations/solve", bytes.NewReader(body))
	h.SolveOptimization(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, enqueuer.messages)
}

func TestSolveOptimizationNonPendingConflicts(t *testing.T) {
	h, store, enqueuer := newTestHandler(t)
	job := seedOptimization(store)
	store.jobs[job.ID].Status = domain.OptimizationCompleted

	body := []byte(fmt.Sprintf(`{"optimizationID": %d, "costWeight": 1.0}`, job.ID))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/optimizations/solve", bytes.NewReader(body))
	h.SolveOptimization(w, r)

	// a finished job needs a reset first; handing out a job handle the
	// worker would drop helps nobody
	require.Equal(t, http.StatusConflict, w.Code)
	require.Empty(t, enqueuer.messages)
}

func TestGetOptimizationStatus(t *testing.T) {
	h, store, _ := newTestHandler(t)
	job := seedOptimization(store)
	msg := "tour schedule 7 not found"
	store.jobs[job.ID].Status = domain.OptimizationFailed
	store.jobs[job.ID].ErrorMessage = &msg

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodGet, "/optimizations/1/status", nil, job.ID)
	h.GetOptimizationStatus(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID           int64   `json:"id"`
		Status       string  `json:"status"`
		ErrorMessage *string `json:"errorMessage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, job.ID, resp.ID)
	require.Equal(t, "Failed", resp.Status)
	require.NotNil(t, resp.ErrorMessage)
	require.Equal(t, msg, *resp.ErrorMessage)
}

func TestGetOptimizationStatusNotFound(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodGet, "/optimizations/42/status", nil, 42)
	h.GetOptimizationStatus(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetOptimizationStatus(t *testing.T) {
	h, store, _ := newTestHandler(t)
	job := seedOptimization(store)
	store.jobs[job.ID].Status = domain.OptimizationInProgress

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodPost, "/optimizations/1/reset-status", nil, job.ID)
	h.ResetOptimizationStatus(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []int64{job.ID}, store.resets)
	require.Equal(t, domain.OptimizationPending, store.jobs[job.ID].Status)
}

func TestResetOptimizationStatusPendingStaysPending(t *testing.T) {
	h, store, _ := newTestHandler(t)
	job := seedOptimization(store)
	// a stale partial result from an earlier run
	store.jobs[job.ID].UnsatisfiedPeriodIDs = []int64{100}
	store.assignments[job.ID] = []domain.TourScheduleAssignment{
		{ID: 1, OptimizationID: job.ID, HumanResourceID: 5, DemandPeriodID: 100},
	}

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodPost, "/optimizations/1/reset-status", nil, job.ID)
	h.ResetOptimizationStatus(w, r)

	// resetting a Pending job is a status no-op that still clears results
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, domain.OptimizationPending, store.jobs[job.ID].Status)
	require.Empty(t, store.jobs[job.ID].UnsatisfiedPeriodIDs)
	require.Empty(t, store.assignments[job.ID])
}

func TestGetOptimizationAssignments(t *testing.T) {
	h, store, _ := newTestHandler(t)
	job := seedOptimization(store)
	store.assignments[job.ID] = []domain.TourScheduleAssignment{
		{ID: 1, OptimizationID: job.ID, HumanResourceID: 3, DemandPeriodID: 100},
	}

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodGet, "/optimizations/1/assignments", nil, job.ID)
	h.GetOptimizationAssignments(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var assignments []domain.TourScheduleAssignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assignments))
	require.Len(t, assignments, 1)
	require.Equal(t, int64(100), assignments[0].DemandPeriodID)
}

func TestDeleteOptimization(t *testing.T) {
	h, store, _ := newTestHandler(t)
	job := seedOptimization(store)

	w := httptest.NewRecorder()
	r := newRequestWithID(http.MethodDelete, "/optimizations/1", nil, job.ID)
	h.DeleteOptimization(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r = newRequestWithID(http.MethodDelete, "/optimizations/1", nil, job.ID)
	h.DeleteOptimization(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
}
