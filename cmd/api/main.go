package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-market/internal/api"
	"farm-market/internal/api/handlers"
	"farm-market/internal/config"
	"farm-market/internal/data"
	"farm-market/internal/store"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if wd, err := os.Getwd(); err == nil {
		log.Printf("Working directory: %s", wd)
	}

	var prices handlers.MarketStore
	cached, err := openStore(cfg.Store)
	if err != nil {
		// Ranking works without history; only the stored-price endpoints need it.
		log.Printf("Price store unavailable at %s: %v", cfg.Store.Path, err)
	} else {
		defer cached.Close()
		prices = cached
		log.Printf("Price store opened at %s", cfg.Store.Path)
	}

	router := api.NewRouter(cfg, prices)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Printf("Failed to start server: %v", err)
		exitCode = 1
		return
	case <-ctx.Done():
	}
	log.Printf("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
		return 1
	}
	return 0
}

func openStore(cfg config.StoreConfig) (*store.Cached, error) {
	if cfg.Path == "" {
		return nil, errors.New("no store path configured")
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}
	s, err := store.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	return store.NewCached(s, data.NewSeriesCache(ttl)), nil
}
