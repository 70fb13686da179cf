package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VitaminP8/blog/internal/config"
	"github.com/VitaminP8/blog/internal/httpapi"
	"github.com/VitaminP8/blog/internal/storage/database"
	"github.com/VitaminP8/blog/internal/subscription"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	storageType := flag.String("storage", "", "Тип хранилища: postgres или sqlite (по умолчанию STORAGE из окружения)")
	flag.Parse()

	// загружаем .env из нашего config.go
	config.LoadEnv()
	cfg := config.Load(*storageType)

	logger, err := config.NewLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("could not open database", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	database.UseLogger(db, logger)
	if err = database.Migrate(db); err != nil {
		logger.Fatal("could not migrate database", zap.Error(err))
	}
	logger.Info("storage ready", zap.String("storage", cfg.Storage))

	files, err := upload.NewLocalStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("could not prepare upload dir", zap.Error(err))
	}

	manager := subscription.NewSubscriptionManager()

	handler := httpapi.NewHandler(
		database.NewUserStorage(db, logger),
		database.NewPostStorage(db, files, logger),
		database.NewCommentStorage(db, manager, logger),
		manager,
		logger,
		cfg.JWTSecret,
	)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
	})

	// HTTP сервер
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// запуск HTTP сервер
	go func() {
		logger.Info("server started", zap.String("addr", server.Addr))
		// ListenAndServe блокирует поток до server.Shutdown() или фатальной ошибки
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Ожидание SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // ждет сигнал

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// сначала дожидаемся запросов, потом закрываем базу
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		logger.Error("could not close database", zap.Error(err))
	}

	logger.Info("server stopped")
}
