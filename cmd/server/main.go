package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/db"
	"github.com/ignatzorin/freelance-escrow/internal/gateway"
	httpHandlers "github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/freelance-escrow/internal/http/router"
	"github.com/ignatzorin/freelance-escrow/internal/logger"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/service"
	"github.com/ignatzorin/freelance-escrow/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Проверка токенов внешнего identity provider.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	profileRepo := repository.NewProfileRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	transactionRepo := repository.NewTransactionRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы. Dispatcher доставляет аудит и уведомления после успешного
	// завершения операции.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	auditService := service.NewAuditService(auditRepo)
	dispatcher := service.NewDispatcher(notificationService, auditService)

	paymentGateway := gateway.NewSimulatedGateway(cfg.PublicBaseURL)

	projectService := service.NewProjectService(projectRepo, proposalRepo, dispatcher, cfg.CodeMaxAttempts)
	milestoneService := service.NewMilestoneService(milestoneRepo, projectRepo, proposalRepo, dispatcher, cfg.CodeMaxAttempts, cfg.EnforceMilestoneBudget)
	paymentService := service.NewPaymentService(transactionRepo, milestoneRepo, projectRepo, profileRepo, paymentGateway, dispatcher, cfg.CodeMaxAttempts, cfg.CashbackRate)
	disputeService := service.NewDisputeService(disputeRepo, projectRepo, dispatcher, cfg.CodeMaxAttempts)
	profileService := service.NewProfileService(profileRepo, dispatcher)

	// HTTP хэндлеры и роутер.
	engine := httpRouter.New(cfg, tokenManager, httpRouter.Handlers{
		Health:       httpHandlers.NewHealthHandler(dbConn),
		Project:      httpHandlers.NewProjectHandler(projectService),
		Proposal:     httpHandlers.NewProposalHandler(projectService),
		Milestone:    httpHandlers.NewMilestoneHandler(milestoneService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Profile:      httpHandlers.NewProfileHandler(profileService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
