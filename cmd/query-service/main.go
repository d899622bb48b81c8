package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/helitech/journal_backend/config"
	"github.com/helitech/journal_backend/models"
	"github.com/helitech/journal_backend/query"
)

const defaultPort = "8080"

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start listening before the store is up; /health reports 503 until the
	// connection is established.
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: query.NewRouter(logger),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	if err := models.MigrateTable(); err != nil {
		config.LogError(logger, "query-service", "main", "migration", nil, err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{"port": port}).Info("query service ready")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			config.LogError(logger, "query-service", "main", "http server", nil, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		config.LogError(logger, "query-service", "main", "graceful shutdown", nil, err)
	}
}
