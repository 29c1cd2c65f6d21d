package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sprinthub/internal/config"
	"sprinthub/internal/handler"
	"sprinthub/internal/httpserver"
	"sprinthub/internal/repository"
	"sprinthub/internal/service"
	"sprinthub/pkg/db"
	"sprinthub/pkg/logger"
	"sprinthub/pkg/mq"
	"sprinthub/pkg/outbox"
	"sprinthub/pkg/redisclient"
)

func main() {
	log, err := logger.New(os.Getenv("DEBUG_LOG") == "true")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(config.Env(), os.Getenv("CONFIG_DIR"))
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outboxRepo := outbox.NewRepository(pool)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(ctx)

	auditRepo := repository.NewAuditRepository(pool, log)
	userRepo := repository.NewUserRepository(pool, auditRepo, outboxRepo, log)
	projectRepo := repository.NewProjectRepository(pool, auditRepo, outboxRepo, log)
	sprintRepo := repository.NewSprintRepository(pool, auditRepo, outboxRepo, log)
	taskRepo := repository.NewTaskRepository(pool, auditRepo, outboxRepo, log)

	access := service.NewAccess(userRepo, projectRepo, sprintRepo, taskRepo)
	authSvc := service.NewAuthService(userRepo, rdb, cfg.JWT.Secret, log)
	userSvc := service.NewUserService(userRepo, access, log)
	projectSvc := service.NewProjectService(projectRepo, userRepo, access, log)
	sprintSvc := service.NewSprintService(sprintRepo, projectRepo, access, log)
	taskSvc := service.NewTaskService(taskRepo, sprintRepo, userRepo, access, log)
	auditSvc := service.NewAuditService(auditRepo, access)
	outboxSvc := service.NewOutboxService(outboxRepo, log)

	handlers := httpserver.Handlers{
		Auth:    handler.NewAuthHandler(authSvc, userSvc, log),
		User:    handler.NewUserHandler(userSvc, authSvc, log),
		Project: handler.NewProjectHandler(projectSvc, log),
		Sprint:  handler.NewSprintHandler(sprintSvc, log),
		Task:    handler.NewTaskHandler(taskSvc, log),
		Audit:   handler.NewAuditHandler(auditSvc),
		Admin:   handler.NewAdminHandler(userSvc, projectSvc, sprintSvc, taskSvc, authSvc, outboxSvc, log),
	}

	router := httpserver.NewRouter(handlers, authSvc, pool, publisher, log)

	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("Server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
