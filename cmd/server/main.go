package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/examwizards/examwizards-backend/internal/config"
	"github.com/examwizards/examwizards-backend/internal/database"
	"github.com/examwizards/examwizards-backend/internal/handler"
	"github.com/examwizards/examwizards-backend/internal/logger"
	"github.com/examwizards/examwizards-backend/internal/metrics"
	"github.com/examwizards/examwizards-backend/internal/middleware"
	"github.com/examwizards/examwizards-backend/internal/repository"
	"github.com/examwizards/examwizards-backend/internal/router"
	"github.com/examwizards/examwizards-backend/internal/service"
	"github.com/examwizards/examwizards-backend/internal/validator"
	"github.com/examwizards/examwizards-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting ExamWizards Backend")

	// ─── Initialize Validator & Metrics ────────────────────────────────
	validator.Setup()
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Apply Migrations (optional) ───────────────────────────────────
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		log.Info().Str("path", cfg.MigrationsPath).Msg("Migrations applied")
	}

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	submissionCache := repository.NewSubmissionCache(rdb)
	examCache := repository.NewExamCache(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo)
	courseService := service.NewCourseService(courseRepo, userRepo, log)
	examService := service.NewExamService(examRepo, questionRepo, courseRepo, examCache, log)
	availabilityService := service.NewAvailabilityService(examRepo, courseRepo, submissionRepo, submissionCache, log)
	attemptService := service.NewAttemptService(availabilityService, examService, submissionCache, submissionRepo, cfg.SubmitGrace, log)
	resultService := service.NewResultService(examService, submissionRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	// WebSocket streams are hijacked connections that srv.Shutdown does not
	// wait for; they live on streamCtx, cancelled when shutdown begins.
	streamCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Student:    handler.NewStudentHandler(courseService, availabilityService, attemptService, log),
		Instructor: handler.NewInstructorHandler(courseService, examService, resultService, log),
		WS:         handler.NewWSHandler(streamCtx, availabilityService, submissionCache, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(database.NewChecker(pool, rdb), rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	submissionWorker := worker.NewSubmissionWorker(submissionCache, submissionRepo, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		submissionWorker.Start(workerCtx)
	}()

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiterStop := make(chan struct{})
	go authLimiter.Run(limiterStop)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, authLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(stopStreams)

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	close(limiterStop)

	// 2. Stop background workers and wait for the last batch to flush.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
