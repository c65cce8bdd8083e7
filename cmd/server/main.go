package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "taxnavo/docs"
	"taxnavo/internal/app"
	"taxnavo/internal/config"
	"taxnavo/internal/logging"
	"taxnavo/internal/service"
	"taxnavo/internal/transport/rest"
	"taxnavo/internal/transport/ws"
)

// @title Taxnavo Intake API
// @version 1.0
// @description Branching tax questionnaire with autosave and document checklist
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage unavailable", zap.Error(err))
	}
	defer a.Close(context.Background())

	reg, err := a.LoadCatalog(ctx, cfg.CatalogDir)
	if err != nil {
		logger.Fatal("catalog load failed", zap.Error(err))
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)

	// Initialize services
	store := service.NewAnswerStore(a.QuestionnaireRepo, a.AnswerCache, logger)
	saver := service.NewSaver(store, cfg.SaveWorkers, cfg.SaveTimeout, logger)
	questionnaireSvc := service.NewQuestionnaireService(reg, store, a.CursorCache, saver, cfg.SessionTTL, logger)
	authSvc := service.NewAuthService(a.UserRepo, store, service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		SignupYear: cfg.SignupYear,
	}, logger)
	profileSvc := service.NewProfileService(reg, store, a.CursorCache, logger)
	documentSvc := service.NewDocumentService(a.DocumentRepo, questionnaireSvc, logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	saver.SetBroadcaster(wsHub)

	container := &rest.Container{
		AuthService:          authSvc,
		QuestionnaireService: questionnaireSvc,
		ProfileService:       profileSvc,
		DocumentService:      documentSvc,
		WSHub:                wsHub,
		CORS: rest.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
		},
		Logger: logger,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           rest.NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.Ints("years", reg.Years()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ListenAndServe", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	questionnaireSvc.Close()
	if err := saver.Close(shutdownCtx); err != nil {
		logger.Error("pending saves not flushed", zap.Error(err))
	}
	wsHub.Close()

	logger.Info("server exited")
}
