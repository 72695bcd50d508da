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

	"github.com/ligaac/practica/backend/internal/router"
	"github.com/ligaac/practica/backend/internal/setup"
	"github.com/ligaac/practica/shared/config"
	"github.com/ligaac/practica/shared/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	// exports stream every CV of a company in one response
	writeTimeout    = 10 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	log.SetFlags(log.Lshortfile)

	var configFolder, dotEnv string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&dotEnv, "env_file", ".env", "optional file with PRACTICA_* secrets")
	flag.Parse()

	if err := config.LoadDotEnv(dotEnv); err != nil {
		log.Fatal(err)
	}
	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer deps.Storage.Cleanup()

	if interval := cfg.Public.CVGCInterval; interval > 0 {
		deps.CVCollector.StartBackgroundCleanup(ctx, interval)
	}

	server := configureServer(cfg, router.New(deps))

	go func() {
		logger.Log.Info("server started", "addr", server.Addr, "external_url", cfg.Public.ExternalURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}

func configureServer(cfg *config.Config, handler http.Handler) *http.Server {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Public.HttpPort
	}

	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
