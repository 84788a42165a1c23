package repository

import (
	"database/sql"
	"errors"

	"github.com/shiftwise-dev/workforce/backend/internal/config"
)

var (
	// ErrNotClaimable is returned when a worker tries to claim an
	// optimization that is not Pending.
	ErrNotClaimable = errors.New("optimization is not pending")

	// ErrOwnershipLost is returned when a worker's terminal write finds the
	// job row changed underneath it (reset while the solve was running).
	ErrOwnershipLost = errors.New("optimization was modified by another writer")
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
