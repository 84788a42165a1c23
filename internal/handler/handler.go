package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/redis/go-redis/v9"
	"github.com/shiftwise-dev/workforce/backend/internal/config"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/shiftwise-dev/workforce/backend/internal/queue"
	"github.com/shiftwise-dev/workforce/backend/internal/repository"
)

// OptimizationStore is the slice of the repository the optimization
// endpoints read and write through.
type OptimizationStore interface {
	InsertOptimization(o *domain.Optimization) error
	GetOptimizationByID(id int64) (*domain.Optimization, error)
	GetAllOptimizations() ([]*domain.Optimization, error)
	GetOptimizationsByEnvironmentID(environmentID int64) ([]*domain.Optimization, error)
	UpdateOptimization(o *domain.Optimization) error
	DeleteOptimization(id int64) error
	ResetOptimization(id int64) (*domain.Optimization, error)
	ListAssignmentsByOptimizationID(id int64) ([]domain.TourScheduleAssignment, error)
	GetTourScheduleByID(id int64) (*domain.TourSchedule, error)
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	optimizations OptimizationStore
	solveQueue    queue.Enqueuer
	redisClient   *redis.Client
	translator    ut.Translator

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, solveQueue queue.Enqueuer, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		optimizations: repo,
		solveQueue:    solveQueue,
		redisClient:   rdb,
		translator:    trans,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below requires a valid session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/optimizations", func(r chi.Router) {
			r.Post("/", h.CreateOptimization)
			r.Get("/", h.GetOptimizations)
			r.Post("/solve", h.SolveOptimization)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOptimization)
				r.Put("/", h.UpdateOptimization)
				r.Patch("/", h.UpdateOptimization)
				r.Delete("/", h.DeleteOptimization)
				r.Get("/status", h.GetOptimizationStatus)
				r.Post("/reset-status", h.ResetOptimizationStatus)
				r.Get("/assignments", h.GetOptimizationAssignments)
			})
		})

		r.Route("/tour-schedules", func(r chi.Router) {
			r.Post("/", h.CreateTourSchedule)
			r.Get("/", h.GetTourSchedules)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTourSchedule)
				r.Patch("/", h.UpdateTourSchedule)
				r.Delete("/", h.DeleteTourSchedule)
			})
		})

		r.Route("/human-resources", func(r chi.Router) {
			r.Post("/", h.CreateHumanResource)
			r.Get("/", h.GetHumanResources)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetHumanResource)
				r.Patch("/", h.UpdateHumanResource)
				r.Delete("/", h.DeleteHumanResource)
			})
		})

		r.Route("/leave-takes", func(r chi.Router) {
			r.Post("/", h.CreateLeaveTake)
			r.Get("/", h.GetLeaveTakes)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLeaveTake)
				r.Patch("/", h.UpdateLeaveTake)
				r.Delete("/", h.DeleteLeaveTake)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdministrator}))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUsers)
		})
	})
}
