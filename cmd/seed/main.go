package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/config"
	"github.com/shiftwise-dev/workforce/backend/internal/repository"
	"github.com/shiftwise-dev/workforce/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var environmentID int64

	flag.IntVar(&op, "op", 0, "operation to run (1: random users, 2: random human resources, 3: random tour schedule, 4: random leave takes)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.Int64Var(&environmentID, "environment-id", 1, "environment to seed into")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not touch the network, so ping explicitly
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	switch op {
	case 1:
		cnt := 0
		for i := 0; i < n; i++ {
			user, err := seed.RandomUser(cfg.Seed.User.Password)
			if err != nil {
				logger.Error("failed to generate user", slog.String("error", err.Error()))
				continue
			}
			if err := repo.CreateUser(user); err != nil {
				logger.Error("failed to insert user", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		logger.Info("users inserted", slog.Int("count", cnt))
	case 2:
		cnt := 0
		for i := 0; i < n; i++ {
			resource := seed.RandomHumanResource(environmentID)
			if err := repo.InsertHumanResource(resource); err != nil {
				logger.Error("failed to insert human resource", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		logger.Info("human resources inserted", slog.Int("count", cnt))
	case 3:
		start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
		schedule := seed.RandomTourSchedule(environmentID, start, 14)
		if err := repo.InsertTourSchedule(schedule); err != nil {
			logger.Error("failed to insert tour schedule", slog.String("error", err.Error()))
			return
		}
		logger.Info("tour schedule inserted", slog.Int64("id", schedule.ID), slog.Int("periods", len(schedule.Periods)))
	case 4:
		resources, err := repo.GetHumanResourcesByEnvironmentID(environmentID)
		if err != nil {
			logger.Error("failed to load human resources", slog.String("error", err.Error()))
			return
		}
		if len(resources) == 0 {
			logger.Error("no human resources to attach leave takes to")
			return
		}

		start := time.Now().UTC().Truncate(24 * time.Hour)
		cnt := 0
		for i := 0; i < n; i++ {
			resource := resources[rand.Intn(len(resources))]
			leave := seed.RandomLeaveTake(resource.ID, start)
			if err := repo.InsertLeaveTake(leave); err != nil {
				logger.Error("failed to insert leave take", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		logger.Info("leave takes inserted", slog.Int("count", cnt))
	default:
		logger.Error("unknown operation", slog.Int("op", op))
	}
}
