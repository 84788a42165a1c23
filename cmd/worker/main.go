package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftwise-dev/workforce/backend/internal/config"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/shiftwise-dev/workforce/backend/internal/queue"
	"github.com/shiftwise-dev/workforce/backend/internal/repository"
	"github.com/shiftwise-dev/workforce/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		return
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

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open rabbitmq channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := queue.Declare(ch, queue.OptimizationQueueName)
	if err != nil {
		logger.Error("failed to declare optimization queue", slog.String("error", err.Error()))
		return
	}
	if _, err := queue.Declare(ch, queue.EmailQueueName); err != nil {
		logger.Error("failed to declare email queue", slog.String("error", err.Error()))
		return
	}

	notifier := queue.NewMailPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	// one unacked message at a time, a solve can run for a while
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set channel qos", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag assigned by the broker
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to start consuming", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancelConsume := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var solveMsg domain.SolveMessage
				if err := json.Unmarshal(msg.Body, &solveMsg); err != nil {
					logger.Error("failed to decode solve message", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				w := worker.New(repo, repo, notifier, logger)
				if err := w.Process(ctx, solveMsg); err != nil {
					if errors.Is(err, worker.ErrTransient) {
						logger.Error("transient failure, requeueing message", slog.String("error", err.Error()))
						_ = msg.Nack(false, true)
						continue
					}
					logger.Error("failed to process solve message", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for solve requests... (press CTRL+C to exit)")
	<-sigChan

	slog.Info("shutting down worker...")
	cancelConsume()
	wg.Wait()
	slog.Info("worker stopped")
}
