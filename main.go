package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/database"
	"github.com/adamkcs/TaskPlannerAPI/handlers"
	"github.com/adamkcs/TaskPlannerAPI/services"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	store, err := database.InitDB(ctx, cfg.ConnectionString)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Initialize services
	tokens, err := services.NewTokenService(cfg.JWTSecretKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTTokenDuration)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure token service")
	}
	authService, err := services.NewAuthService(store, tokens, nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure auth service")
	}

	var index services.SearchIndex = services.NopIndex{}
	if cfg.ElasticsearchURI != "" {
		elastic, err := services.NewElasticIndex(cfg.ElasticsearchURI, cfg.ElasticsearchIndex)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure search index")
		}
		index = elastic
		log.WithField("index", cfg.ElasticsearchIndex).Info("Task search enabled")
	} else {
		log.Info("ELASTICSEARCH_URI not set, task search disabled")
	}
	indexer := services.NewIndexer(index, logger)

	// Initialize WebSocket hub
	hub := services.NewHub(logger)
	go hub.Run(ctx)

	r := handlers.NewRouter(handlers.Dependencies{
		Store:          store,
		Auth:           authService,
		Tokens:         tokens,
		Hub:            hub,
		Indexer:        indexer,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	indexer.Wait()
}
