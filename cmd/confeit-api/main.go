package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"example.com/confeitapp/internal/backend"
	"example.com/confeitapp/internal/logging"
	"example.com/confeitapp/internal/sqliteutil"
)

func main() {
	var (
		dbPath = flag.String("db", "confeit.db", "path to the stub API sqlite database file")
		addr   = flag.String("addr", ":8080", "HTTP listen address for the stub API")
	)
	flag.Parse()

	ctx := context.Background()
	logger := logging.New()

	db, err := sqliteutil.Open(*dbPath)
	if err != nil {
		logger.Error("open stub db failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := backend.NewStore(db)
	if err := store.Init(ctx); err != nil {
		logger.Error("init stub schema failed", "error", err)
		os.Exit(1)
	}

	serverLogger := logger.With("component", "stub.http")
	server := &http.Server{
		Addr:    *addr,
		Handler: backend.NewServer(store, serverLogger).Router(),
	}

	go func() {
		serverLogger.Info("stub API listening", "addr", *addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLogger.Error("stub server error", "error", err)
		}
	}()

	waitForShutdown(serverLogger, server)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return
	}
	logger.Info("stub server stopped")
}
