package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stratix/import-engine/internal/config"
	"github.com/stratix/import-engine/internal/db"
	"github.com/stratix/import-engine/internal/importer"
	"github.com/stratix/import-engine/internal/insights"
	"github.com/stratix/import-engine/internal/middleware"
	"github.com/stratix/import-engine/internal/repository"
	"github.com/stratix/import-engine/internal/storage"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".", log)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	blobs, err := storage.NewS3Store(ctx, cfg.Blob)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize blob store")
	}

	tenantRepo := repository.NewTenantRepository(conn.Pool)
	objectiveRepo := repository.NewObjectiveRepository(conn.Pool)
	initiativeRepo := repository.NewInitiativeRepository(conn.Pool)
	activityRepo := repository.NewActivityRepository(conn.Pool)
	linkRepo := repository.NewLinkRepository(conn.Pool)
	userRepo := repository.NewUserRepository(conn.Pool)
	jobRepo := repository.NewImportJobRepository(conn.Pool)

	resolver := importer.NewResolver(objectiveRepo, initiativeRepo, activityRepo, userRepo)
	tracker := importer.NewTracker(jobRepo, log)
	importService := importer.NewService(resolver, linkRepo, tracker, blobs, cfg.Import, log)
	insightService := insights.NewService(objectiveRepo, initiativeRepo, linkRepo)

	mux := http.NewServeMux()
	importer.NewHandler(importService, jobRepo, tenantRepo, blobs).Register(mux)
	insights.NewHandler(insightService).Register(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      corsHandler.Handler(middleware.Logging(log)(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("starting import engine")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}
