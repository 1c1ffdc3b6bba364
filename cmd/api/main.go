package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"commitlife/api/internal/app"
	"commitlife/api/internal/archive"
	"commitlife/api/internal/cache"
	"commitlife/api/internal/config"
	"commitlife/api/internal/search"
	"commitlife/api/internal/store"
	"commitlife/api/internal/synthesizer"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create repos dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)

	var respCache *cache.RedisCache
	if strings.TrimSpace(cfg.RedisURL) != "" {
		respCache, err = cache.New(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, response caching disabled: %v", err)
		} else {
			defer respCache.Close()
		}
	}

	var objects *archive.ObjectStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		objects, err = archive.NewObjectStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Printf("WARNING: minio unavailable, artifacts stay local: %v", err)
		}
	}
	archiver := archive.NewService(filepath.Join(filepath.Dir(cfg.ReposDir), "zips"), objects)

	synth := synthesizer.New(cfg.SynthesizerURL, cfg.SynthesizerTimeout)

	var service *app.Service
	if respCache != nil {
		service = app.NewService(cfg.ReposDir, synth, dataStore, searchService, respCache, archiver)
	} else {
		service = app.NewService(cfg.ReposDir, synth, dataStore, searchService, nil, archiver)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CommitLife API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
