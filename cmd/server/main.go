package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiora/backend/internal/config"
	"studiora/backend/internal/db"
	"studiora/backend/internal/handler"
	"studiora/backend/internal/repository"
	"studiora/backend/internal/router"
	"studiora/backend/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := config.NewLogger(cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logger.Error("open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "migrations", applied)
	}

	snapshots := repository.NewSnapshotRepository(database)
	pomodoroRepo := repository.NewPomodoroRepository(database)

	authService := service.NewAuthService(
		repository.NewUserRepository(database),
		repository.NewSessionRepository(database),
		repository.NewVerificationRepository(database),
		cfg.JWTSecret,
		cfg.TokenTTL,
		logger,
	)
	taskService := service.NewTaskService(snapshots, logger)
	noteService := service.NewNoteService(snapshots, logger, time.Now)
	timerService := service.NewTimerService(snapshots, pomodoroRepo, service.TimerOptions{
		Defaults:     cfg.Timer.Settings(),
		TickInterval: cfg.Timer.TickInterval,
		RearmDelay:   cfg.Timer.RearmDelay,
	}, logger)
	groupService := service.NewGroupService(repository.NewGroupRepository(database), logger)
	statsService := service.NewStatsService(pomodoroRepo, taskService, logger, time.Now)

	unsubscribe := authService.ReleaseOnSignOut(timerService, taskService, noteService)
	defer unsubscribe()

	engine := router.New(authService, router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Timer:  handler.NewTimerHandler(timerService),
		Tasks:  handler.NewTaskHandler(taskService),
		Notes:  handler.NewNoteHandler(noteService),
		Groups: handler.NewGroupHandler(groupService),
		Stats:  handler.NewStatsHandler(statsService),
	}, cfg.CORSOrigins, logger)

	// Closing the timers ends open event streams so Shutdown does not wait on them.
	server := router.NewServer(":"+cfg.Port, engine, timerService.Close)

	go func() {
		logger.Info("backend listening", "addr", server.Addr, "driver", cfg.DBDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("run server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown server", "error", err)
	}
}
