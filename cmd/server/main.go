package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/cache"
	"cedra_variant_editor/internal/config"
	"cedra_variant_editor/internal/database"
	"cedra_variant_editor/internal/handlers"
	"cedra_variant_editor/internal/routes"
	"cedra_variant_editor/internal/service"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide : %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("❌ Logger : %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	clients, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("❌ Connexion aux bases impossible", zap.Error(err))
	}
	defer clients.Close()

	index := service.NewElasticSkuIndex(clients.Elastic, cfg.Elastic.Index, logger)
	if err := index.EnsureIndex(ctx); err != nil {
		logger.Fatal("❌ Index Elasticsearch indisponible", zap.Error(err))
	}

	editor := service.NewEditorService(
		cache.NewSessionStore(clients.Redis, cfg.SessionTTL),
		database.NewVariantRepository(clients.Scylla, logger),
		index,
		service.NewMinioImageStore(clients.MinIO, cfg.MinIO.Bucket),
		logger,
	)

	router := routes.NewRouter(routes.Deps{
		Editor:      handlers.NewEditorHandler(editor, logger),
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		Redis:       clients.Redis,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("❌ Serveur arrêté", zap.Error(err))
		}
	}()
	logger.Info("🚀 Éditeur de variantes lancé",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Arrêt forcé", zap.Error(err))
	}
	logger.Info("Serveur arrêté")
}
